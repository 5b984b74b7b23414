package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion lets clients detect envelope format changes.
const envelopeVersion = 1

// Envelope is the wire format for all huma responses.
type Envelope struct {
	V       int    `json:"v" doc:"Envelope format version"`
	Success bool   `json:"success" doc:"Whether the request succeeded"`
	Data    any    `json:"data,omitempty" doc:"Response payload"`
	Error   string `json:"error,omitempty" doc:"Error message when success is false"`
	Code    string `json:"code,omitempty" doc:"Machine-readable error code"`
}

// EnvelopeTransformer wraps every response body in the Envelope
// structure so clients handle one shape for success and failure.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if v == nil {
		return v, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Data:    apiErr.Details,
		}, nil
	}

	code, err := strconv.Atoi(status)
	if err != nil {
		code = 0
	}

	return &Envelope{
		V:       envelopeVersion,
		Success: code < 400,
		Data:    v,
	}, nil
}
