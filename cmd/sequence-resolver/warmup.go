package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const warmupSource = "warmup"

// warmupOverlap keeps sibling instances alive long enough to overlap, so
// self-invocations land on fresh instances instead of this one.
const warmupOverlap = 75 * time.Millisecond

type warmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

func isWarmupEvent(event json.RawMessage) (*warmupEvent, bool) {
	var w warmupEvent
	if err := json.Unmarshal(event, &w); err != nil {
		return nil, false
	}
	if w.Source != warmupSource {
		return nil, false
	}
	return &w, true
}

func handleWarmup(ctx context.Context, w *warmupEvent) (any, error) {
	warmed := 1
	if w.Concurrency > 0 {
		if err := selfInvoke(ctx, w.Concurrency); err == nil {
			warmed += w.Concurrency
		}
	}

	time.Sleep(warmupOverlap)

	return map[string]any{
		"status": "warm",
		"warmed": warmed,
	}, nil
}

// selfInvoke fires count async invocations of this function with
// concurrency=0 so children never recurse.
func selfInvoke(ctx context.Context, count int) error {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	client := lambdasdk.NewFromConfig(cfg)
	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	payload, err := json.Marshal(warmupEvent{Source: warmupSource, Concurrency: 0})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var invokeErr error

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: lambdatypes.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				mu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return invokeErr
}
