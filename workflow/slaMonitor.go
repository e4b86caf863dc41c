package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"github.com/sirupsen/logrus"
)

const slaSweepInterval = time.Minute

// SweepReceivingSLA flags ASNs stuck in RECEIVING past the configured
// window. Flagging is observability only; nothing is ever auto-cancelled.
func SweepReceivingSLA(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-time.Duration(config.ReceivingSLAMinutes()) * time.Minute)

	db := config.GetDB()
	var overdue []models.ASN
	if err := db.WithContext(ctx).
		Where("status = ? AND sla_flagged_at IS NULL AND receiving_started_at IS NOT NULL AND receiving_started_at < ?",
			models.ASNStatusReceiving, cutoff).
		Find(&overdue).Error; err != nil {
		return 0, err
	}

	logger := config.GetLogger()
	flagged := 0
	for _, asn := range overdue {
		result := db.WithContext(ctx).Model(&models.ASN{}).
			Where("id = ? AND sla_flagged_at IS NULL", asn.ID).
			Update("sla_flagged_at", now)
		if result.Error != nil {
			config.LogError(logger, "workflow", "SweepReceivingSLA", "flag", asn.ID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			flagged++
			logger.WithFields(logrus.Fields{
				"asn_number":           asn.AsnNumber,
				"warehouse_id":         asn.WarehouseId,
				"receiving_started_at": asn.ReceivingStartedAt,
				"sla_minutes":          config.ReceivingSLAMinutes(),
			}).Warn("receiving session exceeded SLA")
		}
	}
	return flagged, nil
}

// StartSLAMonitor runs the sweep on a ticker until ctx is cancelled.
func StartSLAMonitor(ctx context.Context) {
	logger := config.GetLogger()
	ticker := time.NewTicker(slaSweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if _, err := SweepReceivingSLA(ctx, now.UTC()); err != nil {
					config.LogError(logger, "workflow", "StartSLAMonitor", "sweep", nil, err)
				}
			}
		}
	}()
}
