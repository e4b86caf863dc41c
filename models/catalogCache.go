package models

import (
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
)

const catalogCacheTTL = 10 * time.Minute

func catalogCacheKey(kind string) string {
	return "catalog:" + kind
}

func invalidateCatalogCache(kinds ...string) {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, catalogCacheKey(kind))
	}
	_ = config.RemoveRedisKey(keys...)
}
