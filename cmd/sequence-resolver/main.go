// Package main is the entry point for the sequence-resolver Lambda. It
// answers warehouse remote-function batches of Ensembl transcript IDs with
// protein sequences.
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"rnaseq/internal/config"
	"rnaseq/internal/ensembl"
	"rnaseq/internal/handlers"
	"rnaseq/internal/resolver"
)

func main() {
	cfg, err := config.LoadResolver()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lookup := ensembl.NewClient(cfg.EnsemblBaseURL, cfg.LookupTimeout)
	handle := handlers.Sequences(resolver.New(lookup, cfg.Concurrency))

	lambda.Start(func(ctx context.Context, event json.RawMessage) (any, error) {
		// Warmup detection must run before request parsing.
		if warmup, ok := isWarmupEvent(event); ok {
			return handleWarmup(ctx, warmup)
		}

		var req events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(event, &req); err != nil {
			return nil, err
		}
		return handle(ctx, req)
	})
}
