package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"bitbucket.org/mmdatafocus/wms_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestReceivingFlowPostsLedgerAndUpdatesPurchaseOrder(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "wms_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if err := models.MigrateDatabase(); err != nil {
		t.Fatalf("MigrateDatabase: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, "user-it")
	ctx = utils.SetUserNameInContext(ctx, "Integration Tester")

	// 1) Seed catalog: warehouse, vendor, products, receiving + storage locations.
	wh, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Code: "WH-IT", Name: "Integration Warehouse"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	ctx = utils.SetWarehouseIdInContext(ctx, wh.ID)

	vendor, err := models.CreateVendor(ctx, &models.NewVendor{Code: "VEND-IT", Name: "Acme Supply"})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}

	widget, err := models.CreateProduct(ctx, &models.NewProduct{Sku: "WIDGET-001", Name: "Widget"})
	if err != nil {
		t.Fatalf("CreateProduct(widget): %v", err)
	}
	gadget, err := models.CreateProduct(ctx, &models.NewProduct{Sku: "GADGET-001", Name: "Gadget"})
	if err != nil {
		t.Fatalf("CreateProduct(gadget): %v", err)
	}

	recvLoc, err := models.CreateLocation(ctx, &models.NewLocation{Code: "RECV-01", Type: models.LocationTypeReceiving})
	if err != nil {
		t.Fatalf("CreateLocation(recv): %v", err)
	}
	storageCap := decimal.NewFromInt(100)
	storageLoc, err := models.CreateLocation(ctx, &models.NewLocation{Code: "A-01-01", Type: models.LocationTypeStorage, Capacity: &storageCap})
	if err != nil {
		t.Fatalf("CreateLocation(storage): %v", err)
	}

	// 2) PO: draft -> pending approval -> approved -> submitted -> open.
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		VendorId:    vendor.ID,
		WarehouseId: wh.ID,
		Lines: []models.NewPOLine{
			{ProductId: widget.ID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromFloat(4.50)},
			{ProductId: gadget.ID, Quantity: decimal.NewFromInt(8), UnitCost: decimal.NewFromInt(12)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if _, err := workflow.SubmitPO(ctx, po.ID); err != nil {
		t.Fatalf("SubmitPO: %v", err)
	}
	if _, err := workflow.ApprovePO(ctx, po.ID); err != nil {
		t.Fatalf("ApprovePO: %v", err)
	}
	if _, err := workflow.SendPO(ctx, po.ID); err != nil {
		t.Fatalf("SendPO: %v", err)
	}
	po, err = workflow.ConfirmPO(ctx, po.ID)
	if err != nil {
		t.Fatalf("ConfirmPO: %v", err)
	}
	if po.Status != models.PurchaseOrderStatusOpen {
		t.Fatalf("expected PO status OPEN after confirm; got %s", po.Status)
	}

	// 3) ASN linked to the PO, validated against it.
	lineOne, lineTwo := 1, 2
	asn, err := models.CreateASN(ctx, &models.NewASN{
		VendorId:        vendor.ID,
		WarehouseId:     wh.ID,
		PurchaseOrderId: &po.ID,
		CarrierName:     "FastFreight",
		BolNumber:       "BOL-777",
		Lines: []models.NewASNLine{
			{ProductId: widget.ID, Quantity: decimal.NewFromInt(10), PoLineNumber: &lineOne},
			{ProductId: gadget.ID, Quantity: decimal.NewFromInt(8), PoLineNumber: &lineTwo},
		},
	})
	if err != nil {
		t.Fatalf("CreateASN: %v", err)
	}
	asn, result, err := workflow.RunASNValidation(ctx, asn.ID)
	if err != nil {
		t.Fatalf("RunASNValidation: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected ASN to validate cleanly; errors: %v", result.Errors)
	}
	if asn.Status != models.ASNStatusValidated {
		t.Fatalf("expected ASN status VALIDATED; got %s", asn.Status)
	}

	// 4) Open the receiving session. A second open attempt must be rejected.
	receipt, err := workflow.StartReceiving(ctx, asn.ID, &workflow.StartReceivingInput{
		ReceivingLocationId: &recvLoc.ID,
	})
	if err != nil {
		t.Fatalf("StartReceiving: %v", err)
	}
	if receipt.Status != models.ReceiptStatusReceiving {
		t.Fatalf("expected receipt status RECEIVING; got %s", receipt.Status)
	}

	if _, err := workflow.StartReceiving(ctx, asn.ID, &workflow.StartReceivingInput{}); err == nil {
		t.Fatalf("expected second StartReceiving to fail")
	} else if ee, ok := utils.AsEngineError(err); !ok || ee.Kind != utils.ErrorKindConflict {
		t.Fatalf("expected CONFLICT from second StartReceiving; got %v", err)
	}

	asn, err = models.GetASN(ctx, asn.ID)
	if err != nil {
		t.Fatalf("GetASN after start: %v", err)
	}
	if asn.Status != models.ASNStatusReceiving {
		t.Fatalf("expected ASN status RECEIVING; got %s", asn.Status)
	}

	// 5) Scan everything: widgets in full, gadgets in full with one damaged.
	var widgetLineId, gadgetLineId string
	for _, line := range receipt.Lines {
		switch line.ProductId {
		case widget.ID:
			widgetLineId = line.ID
		case gadget.ID:
			gadgetLineId = line.ID
		}
	}
	if widgetLineId == "" || gadgetLineId == "" {
		t.Fatalf("receipt lines not seeded from ASN: %+v", receipt.Lines)
	}

	receipt, err = workflow.ReceiveLines(ctx, receipt.ID, &workflow.ReceiveLinesInput{
		Version: receipt.Version,
		Lines: []workflow.ReceiveEventInput{
			{LineId: widgetLineId, Quantity: decimal.NewFromInt(10)},
			{LineId: gadgetLineId, Quantity: decimal.NewFromInt(8), QuantityDamaged: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveLines: %v", err)
	}

	// 6) Complete. Each line is COMPLETE by received quantity, so no variance
	// acceptance is needed even though one gadget is damaged.
	receipt, err = workflow.CompleteReceipt(ctx, receipt.ID, &workflow.CompleteReceiptInput{
		Version: receipt.Version,
	})
	if err != nil {
		t.Fatalf("CompleteReceipt: %v", err)
	}
	if receipt.Status != models.ReceiptStatusCompleted {
		t.Fatalf("expected receipt status COMPLETED; got %s", receipt.Status)
	}
	if receipt.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}

	asn, err = models.GetASN(ctx, asn.ID)
	if err != nil {
		t.Fatalf("GetASN after complete: %v", err)
	}
	if asn.Status != models.ASNStatusReceived {
		t.Fatalf("expected ASN status RECEIVED; got %s", asn.Status)
	}

	// Only good quantity reaches the PO: 10/10 widgets, 7/8 gadgets.
	po, err = models.GetPurchaseOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder after complete: %v", err)
	}
	if po.Status != models.PurchaseOrderStatusPartial {
		t.Fatalf("expected PO status PARTIAL; got %s", po.Status)
	}
	for _, line := range po.Lines {
		switch line.ProductId {
		case widget.ID:
			if line.QtyReceived.Cmp(decimal.NewFromInt(10)) != 0 {
				t.Fatalf("widget PO line: expected qty_received=10; got %s", line.QtyReceived)
			}
		case gadget.ID:
			if line.QtyReceived.Cmp(decimal.NewFromInt(7)) != 0 {
				t.Fatalf("gadget PO line: expected qty_received=7; got %s", line.QtyReceived)
			}
		}
	}

	// 7) Ledger and balances: one RECEIPT entry per line, 17 good units total.
	db := config.GetDB()
	var entries []models.InventoryLedgerEntry
	if err := db.WithContext(ctx).Where("receipt_id = ?", receipt.ID).Order("posted_at").Find(&entries).Error; err != nil {
		t.Fatalf("fetch ledger entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries after complete; got %d", len(entries))
	}
	total := decimal.Zero
	for _, e := range entries {
		if e.EntryType != models.LedgerEntryTypeReceipt {
			t.Fatalf("expected RECEIPT entry; got %s", e.EntryType)
		}
		total = total.Add(e.Quantity)
	}
	if total.Cmp(decimal.NewFromInt(17)) != 0 {
		t.Fatalf("expected 17 good units posted; got %s", total)
	}

	if got := fetchBalance(t, ctx, wh.ID, widget.ID, recvLoc.ID); got.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("widget balance at receiving: expected 10; got %s", got)
	}
	if got := fetchBalance(t, ctx, wh.ID, gadget.ID, recvLoc.ID); got.Cmp(decimal.NewFromInt(7)) != 0 {
		t.Fatalf("gadget balance at receiving: expected 7; got %s", got)
	}

	// 8) Putaway the widgets into storage as a paired OUT/IN move.
	if _, err := workflow.Putaway(ctx, receipt.ID, widgetLineId, &workflow.PutawayInput{
		LocationId: storageLoc.ID,
		Quantity:   decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("Putaway: %v", err)
	}
	if got := fetchBalance(t, ctx, wh.ID, widget.ID, recvLoc.ID); !got.IsZero() {
		t.Fatalf("widget balance at receiving after putaway: expected 0; got %s", got)
	}
	if got := fetchBalance(t, ctx, wh.ID, widget.ID, storageLoc.ID); got.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("widget balance at storage after putaway: expected 10; got %s", got)
	}
	if err := db.WithContext(ctx).Where("receipt_id = ?", receipt.ID).Find(&entries).Error; err != nil {
		t.Fatalf("fetch ledger entries after putaway: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 ledger entries after putaway; got %d", len(entries))
	}

	// 9) The missing gadget arrives on a second ASN. The session is scheduled
	// ahead of time and takes its first scan without an explicit start; the
	// ASN must ride along to RECEIVING so completion can land it in RECEIVED.
	asn2, err := models.CreateASN(ctx, &models.NewASN{
		VendorId:        vendor.ID,
		WarehouseId:     wh.ID,
		PurchaseOrderId: &po.ID,
		CarrierName:     "FastFreight",
		Lines: []models.NewASNLine{
			{ProductId: gadget.ID, Quantity: decimal.NewFromInt(1), PoLineNumber: &lineTwo},
		},
	})
	if err != nil {
		t.Fatalf("CreateASN(second): %v", err)
	}
	asn2, result2, err := workflow.RunASNValidation(ctx, asn2.ID)
	if err != nil {
		t.Fatalf("RunASNValidation(second): %v", err)
	}
	if !result2.Valid {
		t.Fatalf("expected second ASN to validate cleanly; errors: %v", result2.Errors)
	}

	receipt2, err := workflow.CreateReceipt(ctx, &workflow.NewReceiptInput{AsnId: &asn2.ID})
	if err != nil {
		t.Fatalf("CreateReceipt(second): %v", err)
	}
	if receipt2.Status != models.ReceiptStatusScheduled {
		t.Fatalf("expected second receipt status SCHEDULED; got %s", receipt2.Status)
	}
	if len(receipt2.Lines) != 1 {
		t.Fatalf("expected second receipt to seed 1 line from ASN; got %d", len(receipt2.Lines))
	}

	receipt2, err = workflow.ReceiveLines(ctx, receipt2.ID, &workflow.ReceiveLinesInput{
		Version: receipt2.Version,
		Lines: []workflow.ReceiveEventInput{
			{LineId: receipt2.Lines[0].ID, Quantity: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveLines(second): %v", err)
	}
	asn2, err = models.GetASN(ctx, asn2.ID)
	if err != nil {
		t.Fatalf("GetASN(second) after scan: %v", err)
	}
	if asn2.Status != models.ASNStatusReceiving {
		t.Fatalf("expected second ASN status RECEIVING after first scan; got %s", asn2.Status)
	}

	receipt2, err = workflow.CompleteReceipt(ctx, receipt2.ID, &workflow.CompleteReceiptInput{
		Version:             receipt2.Version,
		ReceivingLocationId: &recvLoc.ID,
	})
	if err != nil {
		t.Fatalf("CompleteReceipt(second): %v", err)
	}
	if receipt2.Status != models.ReceiptStatusCompleted {
		t.Fatalf("expected second receipt status COMPLETED; got %s", receipt2.Status)
	}
	asn2, err = models.GetASN(ctx, asn2.ID)
	if err != nil {
		t.Fatalf("GetASN(second) after complete: %v", err)
	}
	if asn2.Status != models.ASNStatusReceived {
		t.Fatalf("expected second ASN status RECEIVED; got %s", asn2.Status)
	}

	po, err = models.GetPurchaseOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder after second session: %v", err)
	}
	if po.Status != models.PurchaseOrderStatusReceived {
		t.Fatalf("expected PO status RECEIVED after second session; got %s", po.Status)
	}
	if got := fetchBalance(t, ctx, wh.ID, gadget.ID, recvLoc.ID); got.Cmp(decimal.NewFromInt(8)) != 0 {
		t.Fatalf("gadget balance at receiving after second session: expected 8; got %s", got)
	}
}

func fetchBalance(t *testing.T, ctx context.Context, warehouseId, productId, locationId string) decimal.Decimal {
	t.Helper()
	var balance models.StockBalance
	err := config.GetDB().WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ? AND location_id = ?", warehouseId, productId, locationId).
		First(&balance).Error
	if err != nil {
		return decimal.Zero
	}
	return balance.Quantity
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("wms-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("wms-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=wms_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
