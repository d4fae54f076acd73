package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"posagent/internal/catalog"
	"posagent/internal/upstream"
)

// Health reports the agent's view of its dependencies: the cart store, the
// local journal DB (optional), the breaker guarding the store backend, and
// the catalog cache. The UI polls this to decide which banner to show.
func Health(db *gorm.DB, rdb *redis.Client, breaker *upstream.Breaker, cat *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		journalStatus := "disabled"
		if db != nil {
			journalStatus = "connected"
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				journalStatus = "error"
			}
		}

		// a broken cart store degrades restart recovery but not selling,
		// so Redis alone never flips the health check
		status := http.StatusOK
		if journalStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":                   status == http.StatusOK,
			"redis":                redisStatus,
			"journal_db":           journalStatus,
			"backend_breaker":      breaker.State().String(),
			"catalog_products":     cat.Size(),
			"catalog_refreshed_at": cat.RefreshedAt(),
		})
	}
}
