package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/iot-ganaderia/backend/internal/api"
	"github.com/iot-ganaderia/backend/internal/config"
	"github.com/iot-ganaderia/backend/internal/ingest"
	"github.com/iot-ganaderia/backend/internal/process"
	"github.com/iot-ganaderia/backend/internal/publish"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.LocalTZ)
	if err != nil {
		logger.Error("failed to load local time zone", "tz", cfg.LocalTZ, "error", err)
		os.Exit(1)
	}

	// Baseline model: optional coefficient file, stock coefficients
	// otherwise. Loaded once, read-only for the process lifetime.
	model := process.DefaultBaseline()
	if cfg.ModelFile != "" {
		model, err = process.LoadBaseline(cfg.ModelFile)
		if err != nil {
			logger.Error("failed to load baseline model", "path", cfg.ModelFile, "error", err)
			os.Exit(1)
		}
		logger.Info("baseline model loaded", "path", cfg.ModelFile)
	}

	tokens := publish.TokenTable{Default: cfg.DefaultToken}
	if cfg.TokensFile != "" {
		tokens, err = publish.LoadTokenTable(cfg.TokensFile)
		if err != nil {
			logger.Error("failed to load device token table", "path", cfg.TokensFile, "error", err)
			os.Exit(1)
		}
		if tokens.Default == "" {
			tokens.Default = cfg.DefaultToken
		}
		logger.Info("device token table loaded", "path", cfg.TokensFile, "devices", len(tokens.Devices))
	}

	pipeline := process.NewPipeline(loc, model, logger)
	publisher := publish.New(cfg.ThingsBoardBase, tokens, cfg.PublishTimeout, logger)
	h := api.NewHandler(pipeline, publisher, logger, Version)

	// Optional MQTT ingress (TTN MQTT integration).
	var subscriber *ingest.Subscriber
	if cfg.MQTTEnabled() {
		subscriber, err = ingest.NewSubscriber(ingest.Options{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, pipeline, publisher, logger)
		if err != nil {
			logger.Error("failed to start MQTT ingress", "broker", cfg.MQTTBroker, "error", err)
			os.Exit(1)
		}
		if err := subscriber.Start(); err != nil {
			logger.Error("failed to subscribe", "error", err)
			os.Exit(1)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.LogRequests {
				return true
			}
			path := c.Request().URL.Path
			return path == "/" || strings.HasSuffix(path, "/health")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	api.RegisterRoutes(e, h)

	s := &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Livestock Telemetry Backend                     ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Listen:     http://0.0.0.0%-31s║\n", cfg.Addr())
	fmt.Printf("║  Dashboard:  %-45s║\n", cfg.ThingsBoardBase)
	fmt.Printf("║  Local TZ:   %-45s║\n", cfg.LocalTZ)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	// Disconnect the MQTT ingress cleanly on shutdown.
	if subscriber != nil {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			logger.Info("shutting down")
			subscriber.Close()
			e.Close()
		}()
	}

	e.Logger.Fatal(e.StartServer(s))
}
