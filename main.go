package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viafly/viafly/api"
	"github.com/viafly/viafly/collector"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/db"
	"github.com/viafly/viafly/pkg/cache"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/queue"
	"github.com/viafly/viafly/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err, "load configuration")
	}

	logger.Init(logger.Config{
		Level:  cfg.LoggingConfig.Level,
		Format: cfg.LoggingConfig.Format,
	})
	log := logger.WithField("component", "server")

	var postgresDB db.PostgresDB
	if cfg.PostgresConfig.Enabled {
		postgresDB, err = db.NewPostgresDB(cfg.PostgresConfig)
		if err != nil {
			log.Fatal(err, "connect to postgres")
		}
		defer postgresDB.Close()

		if err := postgresDB.InitSchema(context.Background()); err != nil {
			log.Fatal(err, "init postgres schema")
		}
	}

	var neo4jDB db.Neo4jDatabase
	if cfg.Neo4jConfig.Enabled {
		neoConn, err := db.NewNeo4jDB(cfg.Neo4jConfig)
		if err != nil {
			log.Fatal(err, "connect to neo4j")
		}
		defer neoConn.Close()

		if err := neoConn.InitSchema(); err != nil {
			log.Fatal(err, "init neo4j schema")
		}
		neo4jDB = neoConn
	}

	jobQueue, err := queue.NewRedisQueue(cfg.RedisConfig)
	if err != nil {
		log.Fatal(err, "connect to redis")
	}
	defer jobQueue.Close()

	if cfg.WorkerEnabled {
		priceCache := cache.NewRedisCache(jobQueue.Client(), "prices")
		client := collector.NewClient(cfg.CollectorConfig, priceCache)
		sweepWorker := worker.NewWorker(
			collector.New(client, cfg.CollectorConfig.RequestDelay),
			postgresDB,
			cfg.WorkerConfig.OutputDir,
			logger.WithField("component", "worker"),
		)

		var scheduler *worker.Scheduler
		if cfg.SweepConfig.Enabled {
			scheduler = worker.NewScheduler(jobQueue, cfg.SweepConfig, logger.WithField("component", "scheduler"))
		}

		manager := worker.NewManager(jobQueue, sweepWorker, scheduler, cfg.WorkerConfig, logger.WithField("component", "manager"))
		manager.Start()
		defer manager.Stop()
	}

	if !cfg.APIEnabled {
		log.Info("api disabled, running worker only")
		waitForShutdown(log)
		return
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	api.RegisterRoutes(router, postgresDB, neo4jDB, jobQueue, cfg)

	srv := &http.Server{
		Addr:    cfg.HTTPBindAddr + ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "start server")
		}
	}()

	waitForShutdown(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "shutdown server")
	}
	log.Info("server stopped")
}

func waitForShutdown(log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
}
