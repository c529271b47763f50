package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type AuditClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// LoadRecord is the audit entry claiming a (table, sample) load. The
// original loader ran WRITE_APPEND unconditionally, so re-running it
// silently doubled a sample's rows; the conditional put here makes that a
// hard duplicate instead.
type LoadRecord struct {
	PK          string `dynamodbav:"PK"`
	LoadID      string `dynamodbav:"LoadID"`
	Database    string `dynamodbav:"Database"`
	Table       string `dynamodbav:"Table"`
	SampleID    string `dynamodbav:"SampleID"`
	ResultsType string `dynamodbav:"ResultsType"`
	Digest      string `dynamodbav:"Digest"`
	Rows        int    `dynamodbav:"Rows"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

func loadPK(database, table, sampleID string) string {
	return fmt.Sprintf("LOAD#%s.%s#SAMPLE#%s", database, table, sampleID)
}

// ClaimLoad registers the load in the audit table. Returns (true, nil) when
// the sample was already loaded into this table; the caller should stop.
// An empty table name disables auditing.
func ClaimLoad(ctx context.Context, ddb AuditClient, auditTable string, rec LoadRecord) (bool, error) {
	if auditTable == "" {
		return false, nil
	}

	rec.PK = loadPK(rec.Database, rec.Table, rec.SampleID)
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal load record: %w", err)
	}

	_, err = ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(auditTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return true, nil
		}
		return false, fmt.Errorf("claim load: %w", err)
	}
	return false, nil
}
