package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
)

type Warehouse struct {
	ID        string    `gorm:"size:36;primary_key" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code" binding:"required"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	City      string    `gorm:"size:100" json:"city"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	if err := utils.ValidateUnique[Warehouse](ctx, "", "code", input.Code, ""); err != nil {
		return nil, err
	}

	warehouse := Warehouse{
		ID:       uuid.NewString(),
		Code:     input.Code,
		Name:     input.Name,
		Address:  input.Address,
		City:     input.City,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, err
	}
	invalidateCatalogCache("warehouses")
	return &warehouse, nil
}

func GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	return utils.FetchSingleModel[Warehouse](ctx, id)
}

func ListWarehouses(ctx context.Context) ([]*Warehouse, error) {
	var cached []*Warehouse
	if ok, err := config.GetRedisObject(catalogCacheKey("warehouses"), &cached); err == nil && ok {
		return cached, nil
	}

	db := config.GetDB()
	var results []*Warehouse
	if err := db.WithContext(ctx).Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	_ = config.SetRedisObject(catalogCacheKey("warehouses"), results, catalogCacheTTL)
	return results, nil
}
