// Package main provides the Lambda handler entry point for ordersync.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/hallcrest/ordersync/internal/api"
	"github.com/hallcrest/ordersync/internal/config"
	"github.com/hallcrest/ordersync/internal/erp"
	"github.com/hallcrest/ordersync/internal/mirror"
	"github.com/hallcrest/ordersync/internal/storage"
	"github.com/hallcrest/ordersync/internal/sync"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	handler, err := buildHandler(context.Background(), logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler.HandleAPIGateway)
}

func buildHandler(ctx context.Context, logger *slog.Logger) (*api.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	tokenStore, err := storage.NewTokenStore(secretsmanager.NewFromConfig(awsCfg), cfg.ERP.TokenSecretARN)
	if err != nil {
		return nil, fmt.Errorf("creating token store: %w", err)
	}

	client, err := erp.NewClient(erp.Config{
		ClientID:     cfg.ERP.ClientID,
		ClientSecret: cfg.ERP.ClientSecret,
		TokenStore:   tokenStore,
	},
		erp.WithBaseURL(cfg.ERP.BaseURL),
		erp.WithTokenURL(cfg.ERP.TokenURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ERP client: %w", err)
	}

	store, err := mirror.Open(cfg.Mirror.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening mirror database: %w", err)
	}

	stateStore, err := storage.NewStateStore(ssm.NewFromConfig(awsCfg), cfg.SSM.ParameterName)
	if err != nil {
		return nil, fmt.Errorf("creating state store: %w", err)
	}

	history, err := storage.NewRunHistory(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDB.TableName)
	if err != nil {
		return nil, fmt.Errorf("creating run history: %w", err)
	}

	service, err := sync.New(sync.Config{
		Logger:     logger,
		Mirror:     store,
		Source:     client,
		StateStore: stateStore,
		Workers:    cfg.Sync.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sync service: %w", err)
	}

	return api.New(api.Config{
		DefaultLimit: cfg.Sync.OrderLimit,
		History:      history,
		Logger:       logger,
		Service:      service,
		Timeout:      time.Duration(cfg.Sync.TimeoutSeconds) * time.Second,
	})
}
