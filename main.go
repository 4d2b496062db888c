package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradebook-server-go/config"
	"gradebook-server-go/db"
	"gradebook-server-go/handlers"
	"gradebook-server-go/logging"
	"gradebook-server-go/models"
	"gradebook-server-go/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	backend, closeBackend, err := openBackend(cfg, log)
	if err != nil {
		log.Fatal("failed to open backend", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeBackend()

	studentStore := store.New(backend, log.Named("store"))
	if err := studentStore.Load(); err != nil {
		log.Fatal("failed to load students", zap.String("backend", cfg.Backend), zap.Error(err))
	}

	if cfg.Seed {
		checkAndSeedData(studentStore, log)
	}

	apiHandler := handlers.NewAPIHandler(studentStore, log.Named("api"))

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logging.GinLogger(log.Named("http")), gin.Recovery())
	apiHandler.Register(router.Group("/api"))

	log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("backend", cfg.Backend))
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatal("failed to run server", zap.Error(err))
	}
}

// openBackend builds the persistence backend named in cfg. The returned func
// releases whatever the backend holds open.
func openBackend(cfg config.Config, log *zap.Logger) (store.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendExcel:
		return db.NewExcelBackend(cfg.XLSXFile), func() {}, nil
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := db.InitializeRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn("error closing Redis client", zap.Error(err))
			}
		}
		return db.NewRedisBackend(client, cfg.RedisKey, log.Named("redis")), closeFn, nil
	default:
		return db.NewFileBackend(cfg.DataFile), func() {}, nil
	}
}

// checkAndSeedData adds demo students when the store came up empty
func checkAndSeedData(s *store.StudentStore, log *zap.Logger) {
	if n := s.Len(); n > 0 {
		log.Info("found existing students, skipping seed data", zap.Int("count", n))
		return
	}

	log.Info("no students found, adding seed data")
	for _, student := range []models.Student{
		{Name: "Alice", ID: 1, Grades: models.Grades{"algorithms": models.Grade(8.5), "data_structures": models.Grade(9)}},
		{Name: "Bob", ID: 2, Grades: models.Grades{"algorithms": models.Grade(5.5), "software_engineering": nil}},
		{Name: "Charlie", ID: 3},
	} {
		if err := s.Insert(student); err != nil {
			log.Warn("failed to add seed student", zap.Int("id", student.ID), zap.Error(err))
		}
	}
}
