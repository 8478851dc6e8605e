package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jengzang/taxi-analytics-go/internal/api"
	"github.com/jengzang/taxi-analytics-go/internal/config"
	"github.com/jengzang/taxi-analytics-go/internal/database"
	"github.com/jengzang/taxi-analytics-go/internal/fetcher"
	"github.com/jengzang/taxi-analytics-go/internal/handler"
	"github.com/jengzang/taxi-analytics-go/internal/logging"
	"github.com/jengzang/taxi-analytics-go/internal/pipeline"
	"github.com/jengzang/taxi-analytics-go/internal/repository"
	"github.com/jengzang/taxi-analytics-go/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	if err := logging.Init(cfg.Log); err != nil {
		log.WithError(err).Fatal("Failed to initialize logging")
	}

	opts := []pipeline.Option{pipeline.WithBatchSize(cfg.Data.BatchSize)}

	// 初始化数据库
	if cfg.Snapshot.Enabled {
		db, err := database.Open(database.Config{Path: cfg.Snapshot.Path})
		if err != nil {
			log.WithError(err).Fatal("Failed to open snapshot database")
		}
		defer db.Close()

		snapshots := repository.NewSnapshotRepository(db)
		logSnapshot(snapshots)
		opts = append(opts, pipeline.WithSnapshots(snapshots))
	}

	sources := pipeline.Sources{
		TripURL:  cfg.Data.TripURL,
		TripPath: cfg.Data.TripPath(),
		ZoneURL:  cfg.Data.ZoneURL,
		ZonePath: cfg.Data.ZonePath(),
	}
	loader := pipeline.NewLoader(pipeline.New(sources, fetcher.NewFetcher(cfg.Data.DownloadTimeout), opts...))

	period, err := service.ParsePeriod(cfg.Data.PeriodStart, cfg.Data.PeriodEnd)
	if err != nil {
		log.WithError(err).Fatal("Invalid data period")
	}
	dashboard := handler.NewDashboardHandler(service.NewDashboardService(loader, period))

	// Warm the dataset so the first request does not pay for the load
	go func() {
		start := time.Now()
		ds, err := loader.Load(context.Background())
		if err != nil {
			log.WithError(err).Error("Initial dataset load failed, retrying on next request")
			return
		}
		log.WithFields(log.Fields{
			"trips":    ds.Trips.Len(),
			"zones":    ds.Zones.Len(),
			"duration": time.Since(start).String(),
		}).Info("Dataset ready")
	}()

	// 初始化路由
	router := api.SetupRouter(cfg, dashboard)

	// 启动服务器
	log.WithField("port", cfg.Server.Port).Info("Server starting")
	if err := router.Run(cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func logSnapshot(snapshots *repository.SnapshotRepository) {
	info, err := snapshots.Info(context.Background())
	if err != nil {
		log.WithError(err).Warn("Failed to read snapshot info")
		return
	}
	if info == nil {
		log.Info("No snapshot stored yet")
		return
	}
	log.WithFields(log.Fields{
		"trip_source": info.Trip.Name,
		"rows":        info.RowCount,
		"created_at":  info.CreatedAt,
	}).Info("Found snapshot")
}
