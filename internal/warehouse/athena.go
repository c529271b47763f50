package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaClient interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

type RepairOptions struct {
	Workgroup      string
	OutputLocation string // s3://bucket/prefix/
	MaxWait        time.Duration
	PollInterval   time.Duration
}

type AthenaError struct {
	State            string
	Reason           string
	QueryExecutionID string
}

func (e *AthenaError) Error() string {
	if e.QueryExecutionID != "" {
		return fmt.Sprintf("athena %s: %s (qid=%s)", e.State, e.Reason, e.QueryExecutionID)
	}
	return fmt.Sprintf("athena %s: %s", e.State, e.Reason)
}

// RepairPartitions runs MSCK REPAIR TABLE so newly written sample_id
// partitions become queryable, and polls the query to a terminal state.
// Returns the query execution ID and final state.
func RepairPartitions(ctx context.Context, c AthenaClient, database, table string, opt RepairOptions) (string, string, error) {
	if opt.Workgroup == "" {
		opt.Workgroup = "primary"
	}
	if opt.OutputLocation == "" {
		return "", "", fmt.Errorf("missing athena output location")
	}
	if opt.MaxWait == 0 {
		opt.MaxWait = 60 * time.Second
	}
	if opt.PollInterval == 0 {
		opt.PollInterval = 2 * time.Second
	}

	q := fmt.Sprintf("MSCK REPAIR TABLE %s;", table)

	startOut, err := c.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(q),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(database),
		},
		WorkGroup: aws.String(opt.Workgroup),
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(opt.OutputLocation),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("athena StartQueryExecution: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)

	deadline := time.Now().Add(opt.MaxWait)
	for {
		if time.Now().After(deadline) {
			return qid, "TIMEOUT", &AthenaError{State: "TIMEOUT", Reason: "partition repair timed out", QueryExecutionID: qid}
		}

		st, err := c.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(qid),
		})
		if err != nil {
			return qid, "", fmt.Errorf("athena GetQueryExecution: %w", err)
		}

		state := st.QueryExecution.Status.State
		switch state {
		case athenatypes.QueryExecutionStateSucceeded:
			return qid, string(state), nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			reason := aws.ToString(st.QueryExecution.Status.StateChangeReason)
			return qid, string(state), &AthenaError{State: string(state), Reason: reason, QueryExecutionID: qid}
		default:
			time.Sleep(opt.PollInterval)
		}
	}
}
