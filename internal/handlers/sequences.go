package handlers

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// SequenceRequest is the warehouse remote-function payload: one inner array
// per row, transcript ID at index 0. A null or empty ID is a pass-through.
type SequenceRequest struct {
	Calls [][]string `json:"calls"`
}

// SequenceResponse mirrors Calls 1:1; nil means no sequence.
type SequenceResponse struct {
	Replies []*string `json:"replies"`
}

type BatchResolver interface {
	ResolveBatch(ctx context.Context, calls [][]string) ([]*string, error)
}

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}, nil
}

func errResp(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, map[string]any{
		"error": msg,
	})
}

// Sequences builds the handler for POST /sequences. Malformed payloads are a
// 400, not an internal error; per-item lookup failures surface as nulls in
// the reply list.
func Sequences(res BatchResolver) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if req.RequestContext.HTTP.Method != "POST" {
			return errResp(405, "method not allowed")
		}

		var in SequenceRequest
		if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
			return errResp(400, "invalid json body")
		}
		if in.Calls == nil {
			return errResp(400, "calls is required")
		}

		replies, err := res.ResolveBatch(ctx, in.Calls)
		if err != nil {
			return errResp(400, err.Error())
		}

		return jsonResp(200, SequenceResponse{Replies: replies})
	}
}
