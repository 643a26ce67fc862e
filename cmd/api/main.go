package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/relieflink/report-gateway/internal/classifier"
	"github.com/relieflink/report-gateway/internal/config"
	"github.com/relieflink/report-gateway/internal/dedup"
	"github.com/relieflink/report-gateway/internal/geocoder"
	"github.com/relieflink/report-gateway/internal/handlers"
	"github.com/relieflink/report-gateway/internal/queue"
	"github.com/relieflink/report-gateway/internal/repository"
	"github.com/relieflink/report-gateway/internal/services"
	"github.com/relieflink/report-gateway/internal/signature"
	xhttp "github.com/relieflink/report-gateway/pkg/http"
	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/pg"
	"github.com/relieflink/report-gateway/pkg/prom"
	"github.com/relieflink/report-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	outbox, err := queue.NewOutbox(redisAdap, queue.Config{
		Stream:            config.Get().ReplyQueueName,
		Group:             config.Get().ReplyQueueConsumerGroup,
		Consumer:          config.Get().ReplyQueueConsumerName,
		MaxRetries:        config.Get().ReplyQueueMaxRetries,
		VisibilityTimeout: config.Get().ReplyQueueVisibilityTimeout,
		PollInterval:      config.Get().ReplyQueuePollInterval,
		BatchSize:         config.Get().ReplyQueueBatchSize,
		MaxLen:            config.Get().ReplyQueueMaxLen,
		EnableDLQ:         config.Get().ReplyQueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating reply outbox", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go func() {
			prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}()
	}

	disasterRepo := repository.NewDisasterRepository(db)
	missingRepo := repository.NewMissingPersonRepository(db)
	animalRepo := repository.NewAnimalRescueRepository(db)
	processingLogRepo := repository.NewProcessingLogRepository(db)

	classifierClient := classifier.NewClient(classifier.Config{
		APIKey:      config.Get().ClassifierAPIKey,
		BaseURL:     config.Get().ClassifierBaseURL,
		Model:       config.Get().ClassifierModel,
		Temperature: config.Get().ClassifierTemperature,
		Timeout:     config.Get().ClassifierTimeout,
	})
	geocoderClient := geocoder.NewClient(geocoder.Config{
		BaseURL:  config.Get().GeocoderBaseURL,
		Timeout:  config.Get().GeocoderTimeout,
		CacheTTL: config.Get().GeocoderCacheTTL,
	})
	dedupService := dedup.New(redisAdap, dedup.Config{
		Window:    config.Get().DedupWindow,
		KeyPrefix: "dedup:",
	})
	verifier := signature.NewVerifier(config.Get().WebhookSecret)

	// services
	ingestService := services.NewIngestService(
		classifierClient,
		geocoderClient,
		dedupService,
		outbox,
		disasterRepo,
		missingRepo,
		animalRepo,
		processingLogRepo,
	)
	healthService := services.NewHealthService()

	// v1 handlers
	webhookHandler := handlers.NewWebhookHandler(ingestService, verifier)
	reportsHandler := handlers.NewReportsHandler(disasterRepo, missingRepo, animalRepo, processingLogRepo)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterWebhookRoutes(g, webhookHandler)
	handlers.RegisterReportRoutes(g, reportsHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
