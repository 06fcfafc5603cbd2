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

	"ops-agent/handler"
	"ops-agent/internal/integrations/paramstore"
	"ops-agent/internal/repository"
	"ops-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// ---- Configuration (read only here) ----
	inventoryTable := mustEnv("INVENTORY_TABLE")
	ordersTable := mustEnv("ORDERS_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	maxQuestionLen := envInt("MAX_QUESTION_LENGTH", 300)
	sessionTTL := time.Duration(envInt("SESSION_TTL_MINUTES", 30)) * time.Minute

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	records, err := repository.NewDynamoClient(awsdynamodb.NewFromConfig(cfg), inventoryTable, ordersTable)
	if err != nil {
		slog.Error("failed to create records client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	askService, err := usecase.NewAskService(ssmClient, records, paramPrefix, maxQuestionLen, sessionTTL,
		usecase.WithLedger(records),
	)
	if err != nil {
		slog.Error("failed to create ask service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(askService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
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
