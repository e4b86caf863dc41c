package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
)

type Vendor struct {
	ID        string    `gorm:"size:36;primary_key" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code" binding:"required"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVendor struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func CreateVendor(ctx context.Context, input *NewVendor) (*Vendor, error) {
	if err := utils.ValidateUnique[Vendor](ctx, "", "code", input.Code, ""); err != nil {
		return nil, err
	}

	vendor := Vendor{
		ID:       uuid.NewString(),
		Code:     input.Code,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&vendor).Error; err != nil {
		return nil, err
	}
	invalidateCatalogCache("vendors")
	return &vendor, nil
}

func GetVendor(ctx context.Context, id string) (*Vendor, error) {
	return utils.FetchSingleModel[Vendor](ctx, id)
}

func ListVendors(ctx context.Context, name *string) ([]*Vendor, error) {
	// hot list, cached until the catalog changes
	if name == nil || *name == "" {
		var cached []*Vendor
		if ok, err := config.GetRedisObject(catalogCacheKey("vendors"), &cached); err == nil && ok {
			return cached, nil
		}
	}

	db := config.GetDB()
	var results []*Vendor
	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ? OR code LIKE ?", "%"+*name+"%", "%"+*name+"%")
	}
	if err := dbCtx.Order("code").Find(&results).Error; err != nil {
		return nil, err
	}
	if name == nil || *name == "" {
		_ = config.SetRedisObject(catalogCacheKey("vendors"), results, catalogCacheTTL)
	}
	return results, nil
}
