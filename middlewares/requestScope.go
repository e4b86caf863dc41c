package middlewares

import (
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("wms-backend")

// RequestScopeMiddleware lifts the tenant and tracing headers into the
// request context. Every model and workflow call downstream reads the
// warehouse from here.
func RequestScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if warehouseId := c.Request.Header.Get("X-Warehouse-Id"); warehouseId != "" {
			ctx = utils.SetWarehouseIdInContext(ctx, warehouseId)
		}
		if userId := c.Request.Header.Get("X-User-Id"); userId != "" {
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if userName := c.Request.Header.Get("X-User-Name"); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}
		if key := c.Request.Header.Get("Idempotency-Key"); key != "" {
			ctx = utils.SetIdempotencyKeyInContext(ctx, key)
		}

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)

		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.End()
	}
}

// RequestLogMiddleware emits one structured line per request.
func RequestLogMiddleware() gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		logger.WithFields(logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         c.Writer.Status(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"correlation_id": correlationId,
		}).Info("http request")
	}
}
