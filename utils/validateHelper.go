package utils

import (
	"context"
	"reflect"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on nested payloads (gin's binding only
// covers the top-level struct on ShouldBindJSON failures we care about).
func ValidateStruct(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		return NewValidationError("%s", err.Error())
	}
	return nil
}

// check if id exists, using ctx's warehouse_id in WHERE, returns RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, warehouseId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, warehouseId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// check if ALL ids exist, using ctx's warehouse_id in WHERE, returns RecordNotFound error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, warehouseId string, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, warehouseId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}
	return nil
}

func ValidateUnique[T any](ctx context.Context, warehouseId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, warehouseId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, warehouseId, column+" = ? AND NOT id = ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("duplicate %s", column)
	}
	return nil
}

// count records, using WHERE warehouse_id = ? AND $condition
// warehouse_id can be blank for cross-warehouse lookups (catalog reference)
func ResourceCountWhere[T any](ctx context.Context, warehouseId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if warehouseId != "" {
		dbCtx.Where("warehouse_id = ?", warehouseId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
