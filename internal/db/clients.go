// Package db constructs the AWS service clients the loader needs.
package db

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type Clients struct {
	Dynamo *dynamodb.Client
	S3     *s3.Client
	Athena *athena.Client
	Glue   *glue.Client
	SNS    *sns.Client
}

// NewClients builds every client from one default config load. Uses the
// execution role creds automatically.
func NewClients(ctx context.Context) (*Clients, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Dynamo: dynamodb.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
		Athena: athena.NewFromConfig(cfg),
		Glue:   glue.NewFromConfig(cfg),
		SNS:    sns.NewFromConfig(cfg),
	}, nil
}
