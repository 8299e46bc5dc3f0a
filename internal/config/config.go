// Package config provides configuration loading from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// EnvDynamoDBTableName is the DynamoDB table for recording run history.
	EnvDynamoDBTableName = "DYNAMODB_TABLE_NAME"

	// EnvERPBaseURL is the base URL for the ERP REST API.
	EnvERPBaseURL = "ERP_BASE_URL"

	// EnvERPClientID is the OAuth client ID for the ERP.
	EnvERPClientID = "ERP_CLIENT_ID"

	// EnvERPClientSecret is the OAuth client secret for the ERP.
	EnvERPClientSecret = "ERP_CLIENT_SECRET"

	// EnvERPTokenSecretARN is the Secrets Manager ARN for the refresh token.
	EnvERPTokenSecretARN = "ERP_TOKEN_SECRET_ARN"

	// EnvERPTokenURL is the OAuth token endpoint URL.
	EnvERPTokenURL = "ERP_TOKEN_URL"

	// EnvMirrorDBPath is the filesystem path of the SQLite mirror database.
	EnvMirrorDBPath = "MIRROR_DB_PATH"

	// EnvSSMParameterName is the SSM parameter storing the last sync timestamp.
	EnvSSMParameterName = "SSM_PARAMETER_NAME"

	// EnvSyncOrderLimit caps how many orders a single run will process.
	EnvSyncOrderLimit = "SYNC_ORDER_LIMIT"

	// EnvSyncTimeoutSeconds bounds the duration of a single sync run.
	EnvSyncTimeoutSeconds = "SYNC_TIMEOUT_SECONDS"

	// EnvSyncWorkers is the number of concurrent order workers (0 = sequential).
	EnvSyncWorkers = "SYNC_WORKERS"
)

const (
	defaultOrderLimit     = 5000
	defaultTimeoutSeconds = 300
)

// DynamoDB holds AWS DynamoDB configuration.
type DynamoDB struct {
	// TableName is the name of the DynamoDB table for run history.
	TableName string
}

// ERP holds ERP API configuration.
type ERP struct {
	// BaseURL is the base URL for API requests.
	BaseURL string

	// ClientID is the OAuth client identifier.
	ClientID string

	// ClientSecret is the OAuth client secret.
	ClientSecret string

	// TokenSecretARN is the Secrets Manager ARN storing the OAuth refresh token.
	TokenSecretARN string

	// TokenURL is the OAuth token endpoint.
	TokenURL string
}

// Mirror holds local mirror database configuration.
type Mirror struct {
	// DBPath is the filesystem path of the SQLite database file.
	DBPath string
}

// SSM holds AWS Systems Manager Parameter Store configuration.
type SSM struct {
	// ParameterName is the SSM parameter storing the last sync timestamp.
	ParameterName string
}

// Sync holds tuning knobs for sync runs.
type Sync struct {
	// OrderLimit caps how many orders a single run will process.
	OrderLimit int

	// TimeoutSeconds bounds the duration of a single sync run.
	TimeoutSeconds int

	// Workers is the number of concurrent order workers. Zero means
	// orders are processed sequentially.
	Workers int
}

// Settings holds all configuration for the application.
type Settings struct {
	// DynamoDB contains AWS DynamoDB settings.
	DynamoDB DynamoDB

	// ERP contains ERP API settings.
	ERP ERP

	// Mirror contains local mirror database settings.
	Mirror Mirror

	// SSM contains AWS Systems Manager Parameter Store settings.
	SSM SSM

	// Sync contains sync run tuning settings.
	Sync Sync
}

func (s *Settings) validate() error {
	var errs []error

	if s.DynamoDB.TableName == "" {
		errs = append(errs, requiredError(EnvDynamoDBTableName))
	}
	if s.ERP.ClientID == "" {
		errs = append(errs, requiredError(EnvERPClientID))
	}
	if s.ERP.ClientSecret == "" {
		errs = append(errs, requiredError(EnvERPClientSecret))
	}
	if s.ERP.TokenSecretARN == "" {
		errs = append(errs, requiredError(EnvERPTokenSecretARN))
	}
	if s.Mirror.DBPath == "" {
		errs = append(errs, requiredError(EnvMirrorDBPath))
	}
	if s.SSM.ParameterName == "" {
		errs = append(errs, requiredError(EnvSSMParameterName))
	}
	if s.Sync.OrderLimit <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSyncOrderLimit))
	}
	if s.Sync.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSyncTimeoutSeconds))
	}
	if s.Sync.Workers < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative", EnvSyncWorkers))
	}

	return errors.Join(errs...)
}

// Load reads configuration from environment variables.
func Load() (*Settings, error) {
	orderLimit, err := envIntOrDefault(EnvSyncOrderLimit, defaultOrderLimit)
	if err != nil {
		return nil, err
	}
	timeoutSeconds, err := envIntOrDefault(EnvSyncTimeoutSeconds, defaultTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	workers, err := envIntOrDefault(EnvSyncWorkers, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Settings{
		DynamoDB: DynamoDB{
			TableName: strings.TrimSpace(os.Getenv(EnvDynamoDBTableName)),
		},
		ERP: ERP{
			BaseURL:        envOrDefault(EnvERPBaseURL, "https://api.erp.example.com/v1"),
			ClientID:       strings.TrimSpace(os.Getenv(EnvERPClientID)),
			ClientSecret:   strings.TrimSpace(os.Getenv(EnvERPClientSecret)),
			TokenSecretARN: strings.TrimSpace(os.Getenv(EnvERPTokenSecretARN)),
			TokenURL:       envOrDefault(EnvERPTokenURL, "https://auth.erp.example.com/oauth2/token"),
		},
		Mirror: Mirror{
			DBPath: strings.TrimSpace(os.Getenv(EnvMirrorDBPath)),
		},
		SSM: SSM{
			ParameterName: strings.TrimSpace(os.Getenv(EnvSSMParameterName)),
		},
		Sync: Sync{
			OrderLimit:     orderLimit,
			TimeoutSeconds: timeoutSeconds,
			Workers:        workers,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func requiredError(envVar string) error {
	return fmt.Errorf("%s is required", envVar)
}
