package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/workflow"
)

// Re-derives stock_balances from the inventory ledger. The ledger is the
// source of truth; run this when balances are suspected to have drifted.
func main() {
	warehouseID := flag.String("warehouse-id", "", "Optional: rebuild only one warehouse (uuid string). If empty, rebuilds all warehouses.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	var warehouses []models.Warehouse
	query := db.WithContext(ctx).Model(&models.Warehouse{})
	if strings.TrimSpace(*warehouseID) != "" {
		query = query.Where("id = ?", strings.TrimSpace(*warehouseID))
	}
	if err := query.Find(&warehouses).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list warehouses: %v\n", err)
		os.Exit(1)
	}
	if len(warehouses) == 0 {
		fmt.Fprintln(os.Stderr, "no warehouses found to rebuild")
		return
	}

	for _, wh := range warehouses {
		// Posting must not race the rebuild.
		if err := workflow.AcquireWarehousePostingLock(db, wh.ID); err != nil {
			fmt.Fprintf(os.Stderr, "warehouse %s: %v\n", wh.Code, err)
			os.Exit(1)
		}
		rebuilt, err := models.RebuildStockBalances(ctx, wh.ID)
		workflow.ReleaseWarehousePostingLock(db, wh.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warehouse %s: rebuild failed: %v\n", wh.Code, err)
			os.Exit(1)
		}
		fmt.Printf("warehouse %s: rebuilt %d balance rows\n", wh.Code, rebuilt)
	}
}
