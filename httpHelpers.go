package main

import (
	"encoding/json"
	"net/http"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"bitbucket.org/mmdatafocus/wms_backend/workflow"
	"github.com/gin-gonic/gin"
)

// respondError maps engine error kinds onto HTTP status codes:
// VALIDATION 400, NOT_FOUND 404, CONFLICT 409, STATE and CAPACITY 422.
func respondError(c *gin.Context, err error) {
	if ee, ok := utils.AsEngineError(err); ok {
		status := http.StatusBadRequest
		switch ee.Kind {
		case utils.ErrorKindNotFound:
			status = http.StatusNotFound
		case utils.ErrorKindConflict:
			status = http.StatusConflict
		case utils.ErrorKindState, utils.ErrorKindCapacity:
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": ee})
		return
	}

	logger := config.GetLogger()
	config.LogError(logger, "server", "respondError", c.FullPath(), nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"kind": "INTERNAL", "message": "internal server error"},
	})
}

func pageParamsFromQuery(c *gin.Context) models.PageParams {
	return models.NewPageParams(c.Query("page"), c.Query("limit"))
}

func queryStringPtr(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

// withIdempotency wraps a mutation handler body. When the request carries an
// Idempotency-Key, a retried call replays the recorded response instead of
// executing again.
func withIdempotency(c *gin.Context, operation string, fn func() (interface{}, int, error)) {
	ctx := c.Request.Context()
	key, hasKey := utils.GetIdempotencyKeyFromContext(ctx)
	warehouseId, _ := utils.GetWarehouseIdFromContext(ctx)
	if !hasKey || key == "" || warehouseId == "" {
		result, status, err := fn()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(status, result)
		return
	}

	db := config.GetDB()
	replay, err := workflow.BeginIdempotency(db.WithContext(ctx), warehouseId, operation, key)
	if err == workflow.ErrIdempotencyInProgress {
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{"kind": "CONFLICT", "message": "request with this idempotency key is still in progress"},
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if replay != nil {
		c.Data(replay.StatusCode, "application/json", replay.ResponseBody)
		return
	}

	result, status, err := fn()
	if err != nil {
		_ = workflow.MarkIdempotencyFailed(db.WithContext(ctx), warehouseId, key)
		respondError(c, err)
		return
	}

	body, marshalErr := json.Marshal(result)
	if marshalErr == nil {
		_ = workflow.MarkIdempotencySucceeded(db.WithContext(ctx), warehouseId, key, status, body)
	}
	c.JSON(status, result)
}
