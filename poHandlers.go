package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/workflow"
	"github.com/gin-gonic/gin"
)

func registerPurchaseOrderRoutes(r *gin.Engine) {
	group := r.Group("/api/purchase-orders")

	group.GET("", listPurchaseOrdersHandler)
	group.GET("/:id", getPurchaseOrderHandler)
	group.POST("", createPurchaseOrderHandler)
	group.PUT("/:id", updatePurchaseOrderHandler)
	group.DELETE("/:id", cancelPurchaseOrderHandler)
	group.POST("/:id/submit", submitPurchaseOrderHandler)
	group.POST("/:id/approve", approvePurchaseOrderHandler)
	group.POST("/:id/send", sendPurchaseOrderHandler)
	group.POST("/:id/confirm", confirmPurchaseOrderHandler)
	group.POST("/:id/close", closePurchaseOrderHandler)
	group.POST("/:id/hold", holdPurchaseOrderHandler)
	group.POST("/:id/reopen", reopenPurchaseOrderHandler)
}

func listPurchaseOrdersHandler(c *gin.Context) {
	filter := models.PurchaseOrderFilter{
		VendorId:    queryStringPtr(c, "vendorId"),
		WarehouseId: queryStringPtr(c, "warehouseId"),
		Search:      queryStringPtr(c, "search"),
	}
	if s := c.Query("status"); s != "" {
		status := models.PurchaseOrderStatus(s)
		filter.Status = &status
	}
	if v := c.Query("dateFrom"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DateFrom = &t
		}
	}
	if v := c.Query("dateTo"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.DateTo = &t
		}
	}

	result, err := models.ListPurchaseOrders(c.Request.Context(), filter, pageParamsFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getPurchaseOrderHandler(c *gin.Context) {
	po, err := models.GetPurchaseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func createPurchaseOrderHandler(c *gin.Context) {
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "po.create", func() (interface{}, int, error) {
		po, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": po}, http.StatusCreated, nil
	})
}

func updatePurchaseOrderHandler(c *gin.Context) {
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	po, err := models.UpdatePurchaseOrder(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func cancelPurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.CancelPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func submitPurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.SubmitPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func approvePurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.ApprovePO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func sendPurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.SendPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func confirmPurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.ConfirmPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func closePurchaseOrderHandler(c *gin.Context) {
	var input workflow.ClosePOInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "po.close", func() (interface{}, int, error) {
		po, err := workflow.ClosePO(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": po}, http.StatusOK, nil
	})
}

func holdPurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.HoldPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}

func reopenPurchaseOrderHandler(c *gin.Context) {
	po, err := workflow.ReopenPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": po})
}
