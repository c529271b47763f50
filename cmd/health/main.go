// Package main is a health-check Lambda. Besides liveness it reports
// whether the Ensembl REST service is reachable, since the resolver is
// useless without it.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"rnaseq/internal/config"
)

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Ensembl string `json:"ensembl"`
}

func handler(ctx context.Context, _ events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp := HealthResponse{OK: true, Service: "rnaseq-backend", Ensembl: "unreachable"}

	if cfg, err := config.LoadResolver(); err == nil {
		resp.Ensembl = pingEnsembl(ctx, cfg.EnsemblBaseURL)
	}

	body, _ := json.Marshal(resp)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(body),
	}, nil
}

func pingEnsembl(ctx context.Context, baseURL string) string {
	client := &http.Client{Timeout: 3 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/info/ping?content-type=application/json", nil)
	if err != nil {
		return "unreachable"
	}
	r, err := client.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer func() { _ = r.Body.Close() }()
	if r.StatusCode >= 200 && r.StatusCode <= 299 {
		return "ok"
	}
	return r.Status
}

func main() {
	lambda.Start(handler)
}
