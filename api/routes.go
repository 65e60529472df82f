// Package api exposes the combination engine and the proximity network
// builder over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/db"
	"github.com/viafly/viafly/queue"
)

// RegisterRoutes registers all API routes. postgresDB and neo4jDB may be nil
// when the corresponding store is disabled.
func RegisterRoutes(router *gin.Engine, postgresDB db.PostgresDB, neo4jDB db.Neo4jDatabase, q queue.Queue, cfg *config.Config) {
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/combinations/search", SearchCombinations())
		v1.POST("/network/build", BuildNetwork())

		v1.POST("/collect", CreateCollectJob(q))
		v1.GET("/jobs/:id", GetJobByID(q))
		v1.GET("/queue", GetQueueStats(q))

		v1.GET("/airports", GetAirports(postgresDB))
		v1.GET("/airports/:code/nearby", GetNearbyAirports(neo4jDB))
	}
}
