// Package main 目录服务入口
//
// 按配置装配其中一个后端（嵌入式或托管），跑首次运行的演示数据
// 注入，然后只暴露 /healthz 和 /metrics。展示层是外部协作方，
// 不在这个进程里。
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-catalog/internal/catalog/seed"
	"campus-catalog/internal/config"
	"campus-catalog/internal/metrics"
	"campus-catalog/internal/shared/blob"
	localblob "campus-catalog/internal/shared/blob/local"
	minioblob "campus-catalog/internal/shared/blob/minio"
	"campus-catalog/internal/shared/eventbus"
	redisbus "campus-catalog/internal/shared/eventbus/redis"
	"campus-catalog/internal/shared/storage"
	"campus-catalog/internal/shared/storage/dbutil"
	postgresdriver "campus-catalog/internal/shared/storage/driver/postgres"
	sqlitedriver "campus-catalog/internal/shared/storage/driver/sqlite"
	"campus-catalog/internal/shared/storage/mongostore"
	"campus-catalog/internal/shared/storage/repository"
	"campus-catalog/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    "stdout",
		Component: "catalog-server",
	})
	logger.Info("Starting catalog server", "env", cfg.Env, "backend", cfg.Backend)
	log.Printf("Config: %s", cfg.String())

	m := metrics.NewMetrics("campus_catalog")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, blobs, bus, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.Backend, err)
	}
	defer store.Close()
	defer bus.Close()

	instrumented := storage.Instrument(store, m, string(cfg.Backend))

	if cfg.Seed.Enabled {
		seeder := seed.NewBootstrapper(instrumented, blobs, nil, cfg.Seed.AssetBaseURL, logger)
		seeded, err := seeder.Run(ctx)
		if err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		if seeded {
			logger.Info("Demo data seeded on first run")
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down catalog server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
		cancel()
	}()

	logger.Info("Catalog server listening", "port", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// openBackend 按配置装配存储 + 对象存储 + 变更总线
func openBackend(ctx context.Context, cfg *config.Config) (storage.CatalogStore, blob.Store, eventbus.Bus, error) {
	switch cfg.Backend {
	case config.BackendHosted:
		store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, nil, err
		}

		blobs, err := minioblob.NewClient(minioblob.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			store.Close()
			return nil, nil, nil, err
		}

		bus, err := redisbus.NewBusFromURL(cfg.RedisURL)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		return store, blobs, bus, nil

	default: // embedded
		var (
			db      *sql.DB
			dialect dbutil.Dialect
			err     error
		)
		if cfg.DatabaseURL != "" {
			db, err = postgresdriver.Open(cfg.DatabaseURL)
			dialect = postgresdriver.NewDialect()
		} else {
			db, err = sqlitedriver.Open(cfg.SQLitePath)
			dialect = sqlitedriver.NewDialect()
		}
		if err != nil {
			return nil, nil, nil, err
		}
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		store := repository.NewStore(db, dialect)

		blobs, err := localblob.NewStore(cfg.BlobDir)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		return store, blobs, eventbus.NewMemoryBus(), nil
	}
}
