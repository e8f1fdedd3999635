package analytics

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jblue-ops/atslite-sub000/internal/common/metrics"
)

const (
	cacheKindInterviews = "interviews"
	cacheKindPipeline   = "pipeline"
)

func cacheKey(companyID, kind string) string {
	return fmt.Sprintf("ats:report:%s:%s", companyID, kind)
}

// cacheGet loads a cached summary into dest. Every failure reads as a
// miss: a cold or unreachable cache never fails the caller.
func (a *Aggregator) cacheGet(ctx context.Context, companyID, kind string, dest interface{}) bool {
	if a.cache == nil {
		return false
	}
	key := cacheKey(companyID, kind)
	payload, err := a.cache.Get(ctx, key).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			a.logger.Warn("report cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		metrics.ReportCacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		a.logger.Warn("report cache entry unreadable", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		metrics.ReportCacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	metrics.ReportCacheHits.WithLabelValues(kind).Inc()
	return true
}

// cacheSet stores a computed summary with the configured TTL. Write
// failures are logged and otherwise ignored.
func (a *Aggregator) cacheSet(ctx context.Context, companyID, kind string, value interface{}) {
	if a.cache == nil {
		return
	}
	key := cacheKey(companyID, kind)
	payload, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("report cache marshal failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if err := a.cache.Set(ctx, key, payload, a.ttl).Err(); err != nil {
		a.logger.Warn("report cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
