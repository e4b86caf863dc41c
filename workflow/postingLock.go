package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireWarehousePostingLock serializes ledger posting per warehouse across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquireWarehousePostingLock(tx *gorm.DB, warehouseId string) error {
	lockName := fmt.Sprintf("posting:%s", warehouseId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for warehouse_id=%s", warehouseId)
	}
	return nil
}

func ReleaseWarehousePostingLock(tx *gorm.DB, warehouseId string) {
	lockName := fmt.Sprintf("posting:%s", warehouseId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
