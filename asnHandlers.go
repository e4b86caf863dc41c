package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/workflow"
	"github.com/gin-gonic/gin"
)

func registerASNRoutes(r *gin.Engine) {
	group := r.Group("/api/asn")

	group.GET("", listASNsHandler)
	group.GET("/stats/summary", asnStatsHandler)
	group.GET("/:id", getASNHandler)
	group.POST("", createASNHandler)
	group.PATCH("/:id", patchASNHandler)
	group.DELETE("/:id", cancelASNHandler)
	group.POST("/:id/validate", validateASNHandler)
	group.POST("/:id/schedule", scheduleASNHandler)
	group.PATCH("/:id/in-transit", asnInTransitHandler)
	group.PATCH("/:id/arrived", asnArrivedHandler)
	group.PATCH("/:id/start-receiving", startReceivingHandler)
	group.POST("/:id/receive", receiveAgainstASNHandler)
	group.PATCH("/:id/close", closeASNHandler)
}

func listASNsHandler(c *gin.Context) {
	filter := models.ASNFilter{
		VendorId:        queryStringPtr(c, "vendorId"),
		WarehouseId:     queryStringPtr(c, "warehouseId"),
		Search:          queryStringPtr(c, "search"),
		PurchaseOrderId: queryStringPtr(c, "purchaseOrderId"),
	}
	if s := c.Query("status"); s != "" {
		status := models.ASNStatus(s)
		filter.Status = &status
	}
	if v := c.Query("expectedFrom"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.ExpectedFrom = &t
		}
	}
	if v := c.Query("expectedTo"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.ExpectedTo = &t
		}
	}

	result, err := models.ListASNs(c.Request.Context(), filter, pageParamsFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func asnStatsHandler(c *gin.Context) {
	counts, err := models.ASNStatusCounts(c.Request.Context(), queryStringPtr(c, "warehouseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": counts})
}

func getASNHandler(c *gin.Context) {
	asn, err := models.GetASN(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": asn, "progress": asn.Progress()})
}

func createASNHandler(c *gin.Context) {
	var input models.NewASN
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "asn.create", func() (interface{}, int, error) {
		asn, err := models.CreateASN(c.Request.Context(), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": asn}, http.StatusCreated, nil
	})
}

func patchASNHandler(c *gin.Context) {
	var input models.UpdateASN
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	asn, err := models.PatchASN(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": asn})
}

func cancelASNHandler(c *gin.Context) {
	asn, err := workflow.CancelASN(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": asn})
}

func validateASNHandler(c *gin.Context) {
	asn, result, err := workflow.RunASNValidation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":     asn,
		"valid":    result.Valid,
		"warnings": result.Warnings,
		"errors":   result.Errors,
	})
}

func scheduleASNHandler(c *gin.Context) {
	var input struct {
		ExpectedArrival *time.Time `json:"expected_arrival"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	asn, err := workflow.ScheduleASN(c.Request.Context(), c.Param("id"), input.ExpectedArrival)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": asn})
}

func asnInTransitHandler(c *gin.Context) {
	asn, err := workflow.MarkASNInTransit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": asn})
}

func asnArrivedHandler(c *gin.Context) {
	asn, err := workflow.MarkASNArrived(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": asn})
}

func startReceivingHandler(c *gin.Context) {
	var input workflow.StartReceivingInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "asn.start-receiving", func() (interface{}, int, error) {
		receipt, err := workflow.StartReceiving(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": receipt}, http.StatusCreated, nil
	})
}

func receiveAgainstASNHandler(c *gin.Context) {
	var input workflow.ASNReceiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "asn.receive", func() (interface{}, int, error) {
		receipt, err := workflow.ReceiveAgainstASN(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": receipt}, http.StatusOK, nil
	})
}

func closeASNHandler(c *gin.Context) {
	var input workflow.CloseASNInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "VALIDATION", "message": err.Error()}})
		return
	}
	withIdempotency(c, "asn.close", func() (interface{}, int, error) {
		asn, err := workflow.CloseASN(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			return nil, 0, err
		}
		return gin.H{"data": asn}, http.StatusOK, nil
	})
}
