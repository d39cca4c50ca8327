package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"source-annotator/internal/domain"
)

const (
	skPrefixRun = "RUN#"
	ttlDuration = 90 * 24 * time.Hour
)

// dynamodbAPI is the subset of *dynamodb.Client used by the ledger.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client records annotation runs in a DynamoDB table keyed by file.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// filePK returns the partition key grouping every run of one file.
func filePK(path string) string {
	return "FILE#" + path
}

// runSK orders runs chronologically; the run id keeps keys unique when two
// runs share a timestamp.
func runSK(ts time.Time, runID string) string {
	return skPrefixRun + ts.UTC().Format(time.RFC3339Nano) + "#" + runID
}

// RecordRun stores run, filling keys, timestamp and TTL when unset.
func (c *Client) RecordRun(ctx context.Context, run domain.AnnotationRun) error {
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("repository: RecordRun: run id is required")
	}
	run = c.withKeys(run)

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                runItem(run),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordRun: %w", err)
	}
	return nil
}

func (c *Client) withKeys(run domain.AnnotationRun) domain.AnnotationRun {
	now := c.now().UTC()
	if run.PK == "" {
		run.PK = filePK(run.FilePath)
	}
	if run.SK == "" {
		run.SK = runSK(now, run.RunID)
	}
	if run.CreatedAt == "" {
		run.CreatedAt = now.Format(time.RFC3339)
	}
	if run.TTL == 0 {
		run.TTL = now.Add(ttlDuration).Unix()
	}
	return run
}

func runItem(run domain.AnnotationRun) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: run.PK},
		"SK":          &types.AttributeValueMemberS{Value: run.SK},
		"runId":       &types.AttributeValueMemberS{Value: run.RunID},
		"filePath":    &types.AttributeValueMemberS{Value: run.FilePath},
		"model":       &types.AttributeValueMemberS{Value: run.Model},
		"language":    &types.AttributeValueMemberS{Value: run.Language},
		"totalTokens": &types.AttributeValueMemberN{Value: strconv.Itoa(run.TotalTokens)},
		"fenced":      &types.AttributeValueMemberBOOL{Value: run.Fenced},
		"status":      &types.AttributeValueMemberS{Value: run.Status},
		"createdAt":   &types.AttributeValueMemberS{Value: run.CreatedAt},
		"ttl":         &types.AttributeValueMemberN{Value: strconv.FormatInt(run.TTL, 10)},
	}
	// Empty strings are legal attribute values, but omitting them keeps
	// successful items free of a meaningless reason.
	if run.Provider != "" {
		item["provider"] = &types.AttributeValueMemberS{Value: run.Provider}
	}
	if run.Reason != "" {
		item["reason"] = &types.AttributeValueMemberS{Value: run.Reason}
	}
	return item
}
