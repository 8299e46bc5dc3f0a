package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RunRecord is the summary of one completed sync run, kept for operational
// history. It records counts only, never per-record data.
type RunRecord struct {
	// CompletedAt is when the run finished.
	CompletedAt time.Time

	// ErrorCount is the number of per-record failures in the run.
	ErrorCount int

	// LineItemsCreated / LineItemsUpdated are the run's line item counts.
	LineItemsCreated int
	LineItemsUpdated int

	// OrdersCreated / OrdersUpdated / OrdersFailed are the run's order counts.
	OrdersCreated int
	OrdersFailed  int
	OrdersUpdated int

	// OrdersFetched is the number of orders returned by the source query.
	OrdersFetched int

	// RunID uniquely identifies the run.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// WindowEnd is the inclusive upper bound of the run's date filter.
	WindowEnd time.Time

	// WindowStart is the inclusive lower bound of the run's date filter.
	WindowStart time.Time
}

// RunHistory records run summaries in DynamoDB.
type RunHistory struct {
	// client is the DynamoDB API client.
	client DynamoDBAPI

	// tableName is the name of the DynamoDB table.
	tableName string
}

// RecordRun stores one run summary keyed by its run id.
func (h *RunHistory) RecordRun(ctx context.Context, rec RunRecord) error {
	if rec.RunID == "" {
		return errors.New("run ID is required")
	}

	_, err := h.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(h.tableName),
		Item: map[string]types.AttributeValue{
			"run_id":             &types.AttributeValueMemberS{Value: rec.RunID},
			"started_at":         &types.AttributeValueMemberS{Value: rec.StartedAt.Format(time.RFC3339)},
			"completed_at":       &types.AttributeValueMemberS{Value: rec.CompletedAt.Format(time.RFC3339)},
			"window_start":       &types.AttributeValueMemberS{Value: rec.WindowStart.Format(time.RFC3339)},
			"window_end":         &types.AttributeValueMemberS{Value: rec.WindowEnd.Format(time.RFC3339)},
			"orders_fetched":     &types.AttributeValueMemberN{Value: strconv.Itoa(rec.OrdersFetched)},
			"orders_created":     &types.AttributeValueMemberN{Value: strconv.Itoa(rec.OrdersCreated)},
			"orders_updated":     &types.AttributeValueMemberN{Value: strconv.Itoa(rec.OrdersUpdated)},
			"orders_failed":      &types.AttributeValueMemberN{Value: strconv.Itoa(rec.OrdersFailed)},
			"line_items_created": &types.AttributeValueMemberN{Value: strconv.Itoa(rec.LineItemsCreated)},
			"line_items_updated": &types.AttributeValueMemberN{Value: strconv.Itoa(rec.LineItemsUpdated)},
			"error_count":        &types.AttributeValueMemberN{Value: strconv.Itoa(rec.ErrorCount)},
		},
	})
	if err != nil {
		return fmt.Errorf("putting run record to DynamoDB: %w", err)
	}

	return nil
}

// Run returns the recorded summary for a run id, or false if none exists.
func (h *RunHistory) Run(ctx context.Context, runID string) (RunRecord, bool, error) {
	if runID == "" {
		return RunRecord{}, false, errors.New("run ID is required")
	}

	output, err := h.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(h.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("getting run record from DynamoDB: %w", err)
	}

	if output.Item == nil {
		return RunRecord{}, false, nil
	}

	rec, err := parseRunRecord(output.Item)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("parsing run record: %w", err)
	}

	return rec, true, nil
}

func parseRunRecord(item map[string]types.AttributeValue) (RunRecord, error) {
	rec := RunRecord{}

	if v, ok := item["run_id"].(*types.AttributeValueMemberS); ok {
		rec.RunID = v.Value
	}

	timeFields := map[string]*time.Time{
		"started_at":   &rec.StartedAt,
		"completed_at": &rec.CompletedAt,
		"window_start": &rec.WindowStart,
		"window_end":   &rec.WindowEnd,
	}
	for name, dst := range timeFields {
		v, ok := item[name].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		t, err := time.Parse(time.RFC3339, v.Value)
		if err != nil {
			return rec, fmt.Errorf("parsing %s: %w", name, err)
		}
		*dst = t
	}

	countFields := map[string]*int{
		"orders_fetched":     &rec.OrdersFetched,
		"orders_created":     &rec.OrdersCreated,
		"orders_updated":     &rec.OrdersUpdated,
		"orders_failed":      &rec.OrdersFailed,
		"line_items_created": &rec.LineItemsCreated,
		"line_items_updated": &rec.LineItemsUpdated,
		"error_count":        &rec.ErrorCount,
	}
	for name, dst := range countFields {
		v, ok := item[name].(*types.AttributeValueMemberN)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v.Value)
		if err != nil {
			return rec, fmt.Errorf("parsing %s: %w", name, err)
		}
		*dst = n
	}

	return rec, nil
}

// DynamoDBAPI defines the DynamoDB operations used by the run history.
type DynamoDBAPI interface {
	// GetItem retrieves an item from DynamoDB.
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)

	// PutItem stores an item in DynamoDB.
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)
}

// NewRunHistory creates a new DynamoDB-backed run history.
func NewRunHistory(client DynamoDBAPI, tableName string) (*RunHistory, error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.New("table name is required")
	}

	return &RunHistory{
		client:    client,
		tableName: tableName,
	}, nil
}
