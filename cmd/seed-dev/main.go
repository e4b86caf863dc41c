package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/shopspring/decimal"
)

// Seeds a development database with a warehouse, catalog data and one
// receivable PO+ASN pair. Not for production use.
func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if err := models.MigrateDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetUserNameInContext(ctx, "SeedDev")

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{
		Code: "WH-01",
		Name: "Main Distribution Center",
		City: "Yangon",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create warehouse: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetWarehouseIdInContext(ctx, warehouse.ID)

	vendor, err := models.CreateVendor(ctx, &models.NewVendor{
		Code: "ACME",
		Name: "Acme Foods Co",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create vendor: %v\n", err)
		os.Exit(1)
	}

	productInputs := []models.NewProduct{
		{Sku: "RICE-25KG", Name: "Rice 25kg Bag", Uom: "EA"},
		{Sku: "OIL-5L", Name: "Cooking Oil 5L", Uom: "EA"},
		{Sku: "SUGAR-1KG", Name: "Sugar 1kg Pack", Uom: "EA"},
	}
	products := make([]*models.Product, 0, len(productInputs))
	for i := range productInputs {
		p, err := models.CreateProduct(ctx, &productInputs[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "create product %s: %v\n", productInputs[i].Sku, err)
			os.Exit(1)
		}
		products = append(products, p)
	}

	capacity := decimal.NewFromInt(500)
	locationInputs := []models.NewLocation{
		{Code: "RCV-01", Zone: "RECEIVING", Type: models.LocationTypeReceiving},
		{Code: "A-01-01", Zone: "A", Type: models.LocationTypeStorage, Capacity: &capacity},
		{Code: "A-01-02", Zone: "A", Type: models.LocationTypeStorage, Capacity: &capacity},
	}
	for i := range locationInputs {
		if _, err := models.CreateLocation(ctx, &locationInputs[i]); err != nil {
			fmt.Fprintf(os.Stderr, "create location %s: %v\n", locationInputs[i].Code, err)
			os.Exit(1)
		}
	}

	for _, code := range []string{"DOCK-01", "DOCK-02"} {
		if _, err := models.CreateDock(ctx, &models.NewDock{Code: code, Type: models.DockTypeReceiving}); err != nil {
			fmt.Fprintf(os.Stderr, "create dock %s: %v\n", code, err)
			os.Exit(1)
		}
	}

	expected := time.Now().UTC().Add(72 * time.Hour)
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		VendorId:     vendor.ID,
		WarehouseId:  warehouse.ID,
		ExpectedDate: &expected,
		Lines: []models.NewPOLine{
			{ProductId: products[0].ID, Uom: "EA", Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromFloat(18.50)},
			{ProductId: products[1].ID, Uom: "EA", Quantity: decimal.NewFromInt(60), UnitCost: decimal.NewFromFloat(7.25)},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create purchase order: %v\n", err)
		os.Exit(1)
	}

	asn, err := models.CreateASN(ctx, &models.NewASN{
		VendorId:        vendor.ID,
		WarehouseId:     warehouse.ID,
		PurchaseOrderId: &po.ID,
		CarrierName:     "Golden Freight",
		ExpectedArrival: &expected,
		Lines: []models.NewASNLine{
			{ProductId: products[0].ID, Quantity: decimal.NewFromInt(100)},
			{ProductId: products[1].ID, Quantity: decimal.NewFromInt(60)},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create asn: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded warehouse=%s po=%s asn=%s\n", warehouse.Code, po.PoNumber, asn.AsnNumber)
}
