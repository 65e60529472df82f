package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viafly/viafly/airports"
	"github.com/viafly/viafly/combine"
	"github.com/viafly/viafly/db"
	"github.com/viafly/viafly/queue"
	"github.com/viafly/viafly/worker"
)

// SearchRequest carries the two offer lists and combination options.
type SearchRequest struct {
	Leg1Flights  []combine.Offer `json:"leg1_flights" binding:"required"`
	Leg2Flights  []combine.Offer `json:"leg2_flights" binding:"required"`
	MinStay      int             `json:"min_stay"`
	MaxStay      int             `json:"max_stay"`
	Leg1DateFrom string          `json:"leg1_date_from"`
	Leg1DateTo   string          `json:"leg1_date_to"`
	Leg2DateFrom string          `json:"leg2_date_from"`
	Leg2DateTo   string          `json:"leg2_date_to"`
	ViaCity      string          `json:"via_city"`
	Top          int             `json:"top"`
	UniqueCities bool            `json:"unique_cities"`
}

// SearchCombinations joins two offer lists into priced itineraries.
func SearchCombinations() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		minStay, maxStay := req.MinStay, req.MaxStay
		if minStay == 0 && maxStay == 0 {
			minStay, maxStay = 1, 30
		}
		if minStay > maxStay {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_stay must not exceed max_stay"})
			return
		}

		itineraries := combine.FindCombinations(req.Leg1Flights, req.Leg2Flights, combine.Options{
			MinStay:    minStay,
			MaxStay:    maxStay,
			Leg1Window: combine.DateWindow{From: req.Leg1DateFrom, To: req.Leg1DateTo},
			Leg2Window: combine.DateWindow{From: req.Leg2DateFrom, To: req.Leg2DateTo},
			ViaCity:    req.ViaCity,
		})
		stats := combine.ComputeStatistics(itineraries)
		ranked := combine.RankAndSelect(itineraries, req.Top, req.UniqueCities)

		c.JSON(http.StatusOK, gin.H{
			"statistics":   stats,
			"combinations": ranked,
		})
	}
}

// NetworkRequest carries airport records and the proximity radius. The
// radius is a pointer so an explicit zero survives decoding.
type NetworkRequest struct {
	Airports      []airports.Airport `json:"airports" binding:"required"`
	MaxDistanceKm *float64           `json:"max_distance_km"`
}

// BuildNetwork computes the proximity network for the posted airports.
func BuildNetwork() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NetworkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		maxKm := 100.0
		if req.MaxDistanceKm != nil {
			maxKm = *req.MaxDistanceKm
		}
		if maxKm < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_distance_km must not be negative"})
			return
		}

		network, err := airports.BuildNetwork(c.Request.Context(), req.Airports, maxKm)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build network: " + err.Error()})
			return
		}
		clusters, err := airports.Clusters(network)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cluster network: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"network":     network,
			"total_edges": network.TotalEdges(),
			"clusters":    clusters,
		})
	}
}

// CreateCollectJob enqueues a collection sweep and returns its job ID.
func CreateCollectJob(q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload worker.SweepPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if payload.Origin == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "origin is required"})
			return
		}

		jobID, err := q.Enqueue(c.Request.Context(), worker.JobTypeCollectSweep, payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue collect job"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"id":     jobID,
			"status": queue.StatusPending,
		})
	}
}

// GetJobByID returns a job record by ID.
func GetJobByID(q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := q.GetJob(c.Request.Context(), c.Param("id"))
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// GetQueueStats returns job counts per status.
func GetQueueStats(q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := q.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get queue stats: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// GetAirports lists the stored airport reference data.
func GetAirports(pgDB db.PostgresDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pgDB == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "airport store is disabled"})
			return
		}
		records, err := pgDB.ListAirports(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query airports: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"airports": records,
			"count":    len(records),
		})
	}
}

// GetNearbyAirports lists an airport's graph neighbors ordered by distance.
func GetNearbyAirports(neo4jDB db.Neo4jDatabase) gin.HandlerFunc {
	return func(c *gin.Context) {
		if neo4jDB == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "graph store is disabled"})
			return
		}
		code := c.Param("code")
		neighbors, err := neo4jDB.NearbyAirports(code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query nearby airports: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"airport": code,
			"nearby":  neighbors,
		})
	}
}
