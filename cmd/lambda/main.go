package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"commerce-agent/handler"
	"commerce-agent/internal/integrations/catalog"
	"commerce-agent/internal/integrations/orders"
	"commerce-agent/internal/integrations/paramstore"
	"commerce-agent/internal/integrations/payments"
	"commerce-agent/internal/integrations/transport"
	"commerce-agent/internal/repository"
	"commerce-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	stateTable := mustEnv(logger, "STATE_TABLE")
	paramPrefix := mustEnv(logger, "PARAM_PREFIX")
	catalogURL := mustEnv(logger, "CATALOG_URL")
	ordersURL := mustEnv(logger, "ORDERS_URL")
	paymentsURL := mustEnv(logger, "PAYMENTS_URL")
	channelURL := mustEnv(logger, "CHANNEL_URL")
	cacheSeconds := envInt("SESSION_CACHE_SECONDS", 30)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		logger.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		logger.Error("failed to create state store", "err", err)
		os.Exit(1)
	}
	cachedStore, err := repository.NewSessionCache(store, time.Duration(cacheSeconds)*time.Second)
	if err != nil {
		logger.Error("failed to create session cache", "err", err)
		os.Exit(1)
	}
	catalogClient, err := catalog.NewClient(catalogURL)
	if err != nil {
		logger.Error("failed to create catalog client", "err", err)
		os.Exit(1)
	}
	ordersClient, err := orders.NewClient(ordersURL)
	if err != nil {
		logger.Error("failed to create orders client", "err", err)
		os.Exit(1)
	}
	paymentsClient, err := payments.NewClient(paymentsURL)
	if err != nil {
		logger.Error("failed to create payments client", "err", err)
		os.Exit(1)
	}
	transportClient, err := transport.NewClient(channelURL, ssmClient, paramPrefix)
	if err != nil {
		logger.Error("failed to create transport client", "err", err)
		os.Exit(1)
	}

	// ---- Engine ----
	checkout, err := usecase.NewCheckoutOrchestrator(ordersClient, paymentsClient, logger)
	if err != nil {
		logger.Error("failed to create checkout orchestrator", "err", err)
		os.Exit(1)
	}
	dispatcher, err := usecase.NewDispatcher(transportClient, store, logger)
	if err != nil {
		logger.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}
	engine, err := usecase.NewEngine(cachedStore, store, catalogClient, checkout, dispatcher, logger)
	if err != nil {
		logger.Error("failed to create engine", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(engine, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(logger *slog.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
