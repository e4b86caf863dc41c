package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/workflow"
	"github.com/gin-gonic/gin"
)

func registerReceivingRoutes(r *gin.Engine) {
	group := r.Group("/api/receiving")

	group.GET("/receipts", listReceiptsHandler)
	group.GET("/receipts/:id", getReceiptHandler)
	group.POST("/receipts", createReceiptHandler)
	group.PATCH("/receipts/:id/check-in", checkInReceiptHandler)
	group.PATCH("/receipts/:id/start", startReceiptHandler)
	group.POST("/receipts/:id/receive", receiveLinesHandler)
	group.POST("/receipts/:id/lines/:lineId/receive", receiveSingleLineHandler)
	group.POST("/receipts/:id/complete", completeReceiptHandler)
	group.POST("/receipts/:id/lines/:lineId/putaway", putawayHandler)
	group.PATCH("/receipts/:id/cancel", cancelReceiptHandler)
	group.GET("/summary", receivingSummaryHandler)

	inventory := r.Group("/api/inventory")
	inventory.GET("/ledger", listLedgerHandler)
	inventory.GET("/stock", listStockHandler)
}

func listReceiptsHandler(c *gin.Context) {
	filter := models.ReceiptFilter{
		WarehouseId: queryStringPtr(c, "warehouseId"),
		AsnId:       queryStringPtr(c, "asnId"),
	}
	if s := c.Query("status"); s != "" {
		status := models.ReceiptStatus(s)
		filter.Status = &status
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}

	result, err := models.ListReceipts(c.Request.Context(), filter, pageParamsFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type receiptLineView struct {
	models.ReceiptLine
	Status   models.ReceiptLineStatus `json:"status"`
	Variance string                   `json:"variance"`
}

// receiptView decorates each line with its derived status and variance.
func receiptView(receipt *models.Receipt) gin.H {
	lines := make([]receiptLineView, 0, len(receipt.Lines))
	for _, line := range receipt.Lines {
		rec := workflow.Reconcile(line.QuantityExpected, line.QuantityReceived, line.QuantityDamaged)
		lines = append(lines, receiptLineView{
			ReceiptLine: line,
			Status:      rec.Status,
			Variance:    rec.Variance.String(),
		})
	}
	return gin.H{"data": receipt, "lines": lines}
}

func getReceiptHandler(c *gin.Context) {
	receipt, err := models.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receiptView(receipt))
}

func createReceiptHandler(c *gin.Context) {
	var input workflow.NewReceiptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "receipt.create", func() (interface{}, int, error) {
		receipt, err := workflow.CreateReceipt(c.Request.Context(), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": receipt}, http.StatusCreated, nil
	})
}

func checkInReceiptHandler(c *gin.Context) {
	var input struct {
		DockId *string `json:"dock_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	receipt, err := workflow.CheckInReceipt(c.Request.Context(), c.Param("id"), input.DockId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

func startReceiptHandler(c *gin.Context) {
	receipt, err := workflow.StartReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

func receiveLinesHandler(c *gin.Context) {
	var input workflow.ReceiveLinesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "receipt.receive", func() (interface{}, int, error) {
		receipt, err := workflow.ReceiveLines(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			return nil, 0, err
		}
		return receiptView(receipt), http.StatusOK, nil
	})
}

func receiveSingleLineHandler(c *gin.Context) {
	var event workflow.ReceiveEventInput
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	event.LineId = c.Param("lineId")

	receipt, err := models.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	withIdempotency(c, "receipt.receive-line", func() (interface{}, int, error) {
		updated, err := workflow.ReceiveLines(c.Request.Context(), receipt.ID, &workflow.ReceiveLinesInput{
			Version: receipt.Version,
			Lines:   []workflow.ReceiveEventInput{event},
		})
		if err != nil {
			return nil, 0, err
		}
		return receiptView(updated), http.StatusOK, nil
	})
}

func completeReceiptHandler(c *gin.Context) {
	var input workflow.CompleteReceiptInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "receipt.complete", func() (interface{}, int, error) {
		receipt, err := workflow.CompleteReceipt(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			return nil, 0, err
		}
		return receiptView(receipt), http.StatusOK, nil
	})
}

func putawayHandler(c *gin.Context) {
	var input workflow.PutawayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "receipt.putaway", func() (interface{}, int, error) {
		receipt, err := workflow.Putaway(c.Request.Context(), c.Param("id"), c.Param("lineId"), &input)
		if err != nil {
			return nil, 0, err
		}
		return receiptView(receipt), http.StatusOK, nil
	})
}

func cancelReceiptHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	receipt, err := workflow.CancelReceipt(c.Request.Context(), c.Param("id"), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

func receivingSummaryHandler(c *gin.Context) {
	db := config.GetDB()
	type row struct {
		Status models.ReceiptStatus
		Count  int64
	}
	var rows []row
	dbCtx := db.WithContext(c.Request.Context()).Model(&models.Receipt{}).
		Select("status, COUNT(id) AS count").Group("status")
	if warehouseId := queryStringPtr(c, "warehouseId"); warehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if err := dbCtx.Scan(&rows).Error; err != nil {
		respondError(c, err)
		return
	}
	counts := make(map[models.ReceiptStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func listLedgerHandler(c *gin.Context) {
	filter := models.LedgerFilter{
		WarehouseId: queryStringPtr(c, "warehouseId"),
		ProductId:   queryStringPtr(c, "productId"),
		LocationId:  queryStringPtr(c, "locationId"),
		ReceiptId:   queryStringPtr(c, "receiptId"),
	}
	if s := c.Query("entryType"); s != "" {
		entryType := models.LedgerEntryType(s)
		filter.EntryType = &entryType
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}

	result, err := models.ListLedgerEntries(c.Request.Context(), filter, pageParamsFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listStockHandler(c *gin.Context) {
	filter := models.StockFilter{
		WarehouseId: queryStringPtr(c, "warehouseId"),
		ProductId:   queryStringPtr(c, "productId"),
		LocationId:  queryStringPtr(c, "locationId"),
		LotNumber:   queryStringPtr(c, "lotNumber"),
		NonZero:     c.Query("nonZero") == "true",
	}
	result, err := models.ListStockBalances(c.Request.Context(), filter, pageParamsFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
