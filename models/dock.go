package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Dock struct {
	ID            string     `gorm:"size:36;primary_key" json:"id"`
	WarehouseId   string     `gorm:"size:36;index;not null" json:"warehouse_id" binding:"required"`
	Code          string     `gorm:"size:50;not null" json:"code" binding:"required"`
	Name          string     `gorm:"size:255" json:"name"`
	Type          DockType   `gorm:"type:enum('RECEIVING','SHIPPING','BOTH');default:RECEIVING" json:"type"`
	CurrentStatus DockStatus `gorm:"type:enum('AVAILABLE','OCCUPIED','OUT_OF_SERVICE');default:AVAILABLE" json:"current_status"`
	OccupiedAt    *time.Time `json:"occupied_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDock struct {
	Code string   `json:"code" binding:"required"`
	Name string   `json:"name"`
	Type DockType `json:"type"`
}

func (d *Dock) CanReceive() bool {
	return (d.Type == DockTypeReceiving || d.Type == DockTypeBoth) && d.CurrentStatus == DockStatusAvailable
}

func CreateDock(ctx context.Context, input *NewDock) (*Dock, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}
	if err := utils.ValidateUnique[Dock](ctx, warehouseId, "code", input.Code, ""); err != nil {
		return nil, err
	}

	dockType := input.Type
	if dockType == "" {
		dockType = DockTypeReceiving
	}

	dock := Dock{
		ID:            uuid.NewString(),
		WarehouseId:   warehouseId,
		Code:          input.Code,
		Name:          input.Name,
		Type:          dockType,
		CurrentStatus: DockStatusAvailable,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&dock).Error; err != nil {
		return nil, err
	}
	return &dock, nil
}

func GetDock(ctx context.Context, id string) (*Dock, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}
	return utils.FetchModel[Dock](ctx, warehouseId, id)
}

func ListDocks(ctx context.Context) ([]*Dock, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}
	return utils.FetchAllModels[Dock](ctx, warehouseId)
}

// OccupyDock marks a dock occupied inside the caller's transaction.
func OccupyDock(tx *gorm.DB, dockId string) error {
	now := time.Now().UTC()
	return tx.Model(&Dock{}).Where("id = ?", dockId).
		Updates(map[string]interface{}{"current_status": DockStatusOccupied, "occupied_at": &now}).Error
}

// ReleaseDock frees a dock inside the caller's transaction.
func ReleaseDock(tx *gorm.DB, dockId string) error {
	return tx.Model(&Dock{}).Where("id = ?", dockId).
		Updates(map[string]interface{}{"current_status": DockStatusAvailable, "occupied_at": nil}).Error
}
