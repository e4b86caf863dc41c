package models

import (
	"bitbucket.org/mmdatafocus/wms_backend/config"
)

func MigrateDatabase() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Vendor{},
		&Product{},
		&Warehouse{},
		&Location{},
		&Dock{},
		&DocumentSequence{},
		&PurchaseOrder{},
		&POLine{},
		&ASN{},
		&ASNLine{},
		&Receipt{},
		&ReceiptLine{},
		&InventoryLedgerEntry{},
		&StockBalance{},
		&IdempotencyKey{},
	)
}
