package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
)

type Product struct {
	ID                string    `gorm:"size:36;primary_key" json:"id"`
	Sku               string    `gorm:"size:100;uniqueIndex;not null" json:"sku" binding:"required"`
	Name              string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Upc               string    `gorm:"size:50" json:"upc"`
	Uom               string    `gorm:"size:10;not null;default:EA" json:"uom"`
	LotTracked        *bool     `gorm:"not null;default:false" json:"lot_tracked"`
	ExpirationTracked *bool     `gorm:"not null;default:false" json:"expiration_tracked"`
	IsActive          *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Sku               string `json:"sku" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Upc               string `json:"upc"`
	Uom               string `json:"uom"`
	LotTracked        *bool  `json:"lot_tracked"`
	ExpirationTracked *bool  `json:"expiration_tracked"`
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := utils.ValidateUnique[Product](ctx, "", "sku", input.Sku, ""); err != nil {
		return nil, err
	}

	uom := input.Uom
	if uom == "" {
		uom = "EA"
	}
	lotTracked := input.LotTracked
	if lotTracked == nil {
		lotTracked = utils.NewFalse()
	}
	expTracked := input.ExpirationTracked
	if expTracked == nil {
		expTracked = utils.NewFalse()
	}

	product := Product{
		ID:                uuid.NewString(),
		Sku:               input.Sku,
		Name:              input.Name,
		Upc:               input.Upc,
		Uom:               uom,
		LotTracked:        lotTracked,
		ExpirationTracked: expTracked,
		IsActive:          utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	invalidateCatalogCache("products")
	return &product, nil
}

func GetProduct(ctx context.Context, id string) (*Product, error) {
	return utils.FetchSingleModel[Product](ctx, id)
}

func ListProducts(ctx context.Context, search *string) ([]*Product, error) {
	if search == nil || *search == "" {
		var cached []*Product
		if ok, err := config.GetRedisObject(catalogCacheKey("products"), &cached); err == nil && ok {
			return cached, nil
		}
	}

	db := config.GetDB()
	var results []*Product
	dbCtx := db.WithContext(ctx)
	if search != nil && len(*search) > 0 {
		dbCtx = dbCtx.Where("sku LIKE ? OR name LIKE ? OR upc LIKE ?", "%"+*search+"%", "%"+*search+"%", "%"+*search+"%")
	}
	if err := dbCtx.Order("sku").Find(&results).Error; err != nil {
		return nil, err
	}
	if search == nil || *search == "" {
		_ = config.SetRedisObject(catalogCacheKey("products"), results, catalogCacheTTL)
	}
	return results, nil
}
