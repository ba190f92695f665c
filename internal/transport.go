package seedog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport sends a single GraphQL request to the endpoint it was dialed
// for. Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
	Close() error
}

type Response struct {
	// StatusCode is zero for transports without status codes.
	StatusCode int
	Status     string

	Data   json.RawMessage
	Errors []json.RawMessage

	// Body is the raw response payload.
	Body []byte
}

// Err reports an HTTP error status or GraphQL errors carried by the response.
func (resp *Response) Err() error {
	if resp == nil {
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("response status: %s", resp.Status)
	}
	if len(resp.Errors) > 0 {
		errorJson, err := json.Marshal(resp.Errors)
		if err != nil {
			return err
		}
		return fmt.Errorf("errors in GraphQL response: %s", string(errorJson))
	}
	return nil
}

// DecodeGraphQLResponse sets Body and, if body is a GraphQL JSON response,
// Data and Errors.
func (resp *Response) DecodeGraphQLResponse(body []byte) {
	resp.Body = body
	var bodyJson struct {
		Data   json.RawMessage   `json:"data"`
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &bodyJson); err != nil {
		return
	}
	resp.Data = bodyJson.Data
	resp.Errors = bodyJson.Errors
}

type TransportFunc func(ctx context.Context, req Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (f TransportFunc) Close() error {
	return nil
}
