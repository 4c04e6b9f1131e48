package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/proxydepot/internal/pool"
	"github.com/zulandar/proxydepot/internal/relay"
	"github.com/zulandar/proxydepot/internal/rotation"
	"github.com/zulandar/proxydepot/internal/ticket"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	api := router.Group("/api")
	api.GET("/stats", handleStats(db))
	api.GET("/pools", handlePools(db))
	api.GET("/tickets/open", handleOpenTickets(db))
	api.GET("/issuances/:user", handleIssuances(db))
	api.GET("/downloads", handleDownloads(db))
}

func handleStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := relay.CollectStats(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func handlePools(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pools, err := pool.List(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, pools)
	}
}

func handleOpenTickets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts, err := ticket.ListOpen(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, ts)
	}
}

func handleIssuances(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		rows, err := rotation.History(db, c.Param("user"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleDownloads(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		rows, err := pool.RecentDownloads(db, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}
