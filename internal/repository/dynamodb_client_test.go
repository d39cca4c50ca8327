package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"source-annotator/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "annotation-runs")
	require.NoError(t, err)
	c.now = func() time.Time { return fixedNow }
	return c
}

func strVal(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q is not a string", key)
	return v.Value
}

func numVal(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberN)
	require.True(t, ok, "attribute %q is not a number", key)
	return v.Value
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "t")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, " ")
	require.Error(t, err)
}

func TestRecordRun_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.RecordRun(context.Background(), domain.AnnotationRun{
		RunID:       "run-1",
		FilePath:    "pkg/mod.py",
		Provider:    "openai",
		Model:       "gpt-4o",
		Language:    "Python",
		TotalTokens: 42,
		Fenced:      true,
		Status:      "complete",
	})
	require.NoError(t, err)

	in := db.lastPutInput
	require.NotNil(t, in)
	require.Equal(t, "annotation-runs", aws.ToString(in.TableName))
	require.Contains(t, aws.ToString(in.ConditionExpression), "attribute_not_exists")

	item := in.Item
	require.Equal(t, "FILE#pkg/mod.py", strVal(t, item, "PK"))
	require.Equal(t, "RUN#2026-03-01T12:00:00Z#run-1", strVal(t, item, "SK"))
	require.Equal(t, "run-1", strVal(t, item, "runId"))
	require.Equal(t, "openai", strVal(t, item, "provider"))
	require.Equal(t, "gpt-4o", strVal(t, item, "model"))
	require.Equal(t, "Python", strVal(t, item, "language"))
	require.Equal(t, "42", numVal(t, item, "totalTokens"))
	require.Equal(t, "complete", strVal(t, item, "status"))
	require.Equal(t, "2026-03-01T12:00:00Z", strVal(t, item, "createdAt"))
	require.Equal(t, "1780142400", numVal(t, item, "ttl"))
	fenced, ok := item["fenced"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	require.True(t, fenced.Value)
	require.NotContains(t, item, "reason")
}

func TestRecordRun_FailedRunKeepsReason(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.RecordRun(context.Background(), domain.AnnotationRun{
		RunID:    "run-2",
		FilePath: "mod.py",
		Status:   "failed",
		Reason:   "file_read_error",
	})
	require.NoError(t, err)
	require.Equal(t, "file_read_error", strVal(t, db.lastPutInput.Item, "reason"))
	require.NotContains(t, db.lastPutInput.Item, "provider")
}

func TestRecordRun_KeepsExplicitKeys(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	require.NoError(t, c.RecordRun(context.Background(), domain.AnnotationRun{
		PK: "FILE#custom", SK: "RUN#custom", RunID: "run-3", TTL: 99,
	}))
	require.Equal(t, "FILE#custom", strVal(t, db.lastPutInput.Item, "PK"))
	require.Equal(t, "RUN#custom", strVal(t, db.lastPutInput.Item, "SK"))
	require.Equal(t, "99", numVal(t, db.lastPutInput.Item, "ttl"))
}

func TestRecordRun_Errors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	err := c.RecordRun(context.Background(), domain.AnnotationRun{FilePath: "mod.py"})
	require.ErrorContains(t, err, "run id is required")

	c = mustNewClient(t, &fakeDynamo{putErr: errors.New("throttled")})
	err = c.RecordRun(context.Background(), domain.AnnotationRun{RunID: "r", FilePath: "mod.py"})
	require.ErrorContains(t, err, "RecordRun")
	require.ErrorContains(t, err, "throttled")
}
