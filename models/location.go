package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Location struct {
	ID          string         `gorm:"size:36;primary_key" json:"id"`
	WarehouseId string         `gorm:"size:36;index:idx_loc_wh_code,priority:1;not null" json:"warehouse_id" binding:"required"`
	Code        string         `gorm:"size:50;index:idx_loc_wh_code,priority:2,unique;not null" json:"code" binding:"required"`
	Zone        string         `gorm:"size:50" json:"zone"`
	Type        LocationType   `gorm:"type:enum('RECEIVING','STAGING','STORAGE','PICKING');default:STORAGE" json:"type"`
	Status      LocationStatus `gorm:"type:enum('ACTIVE','BLOCKED','FULL','INACTIVE');default:ACTIVE" json:"status"`
	// Capacity is in base units; nil means capacity is not enforced here.
	Capacity  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"capacity"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLocation struct {
	Code     string           `json:"code" binding:"required"`
	Zone     string           `json:"zone"`
	Type     LocationType     `json:"type"`
	Capacity *decimal.Decimal `json:"capacity"`
}

// AcceptsStock reports whether putaway may target this location.
func (l *Location) AcceptsStock() bool {
	return l.Status == LocationStatusActive
}

func CreateLocation(ctx context.Context, input *NewLocation) (*Location, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}

	if err := utils.ValidateUnique[Location](ctx, warehouseId, "code", input.Code, ""); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, "", warehouseId); err != nil {
		return nil, utils.NewValidationError("warehouse not found")
	}

	locType := input.Type
	if locType == "" {
		locType = LocationTypeStorage
	}

	location := Location{
		ID:          uuid.NewString(),
		WarehouseId: warehouseId,
		Code:        input.Code,
		Zone:        input.Zone,
		Type:        locType,
		Status:      LocationStatusActive,
		Capacity:    input.Capacity,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func UpdateLocationStatus(ctx context.Context, id string, status LocationStatus) (*Location, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}
	location, err := utils.FetchModel[Location](ctx, warehouseId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&location).Update("status", status).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func GetLocation(ctx context.Context, id string) (*Location, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}
	return utils.FetchModel[Location](ctx, warehouseId, id)
}

func ListLocations(ctx context.Context, zone *string, locType *LocationType) ([]*Location, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}

	db := config.GetDB()
	var results []*Location
	dbCtx := db.WithContext(ctx).Where("warehouse_id = ?", warehouseId)
	if zone != nil && len(*zone) > 0 {
		dbCtx = dbCtx.Where("zone = ?", *zone)
	}
	if locType != nil && len(*locType) > 0 {
		dbCtx = dbCtx.Where("type = ?", *locType)
	}
	if err := dbCtx.Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
