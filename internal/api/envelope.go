package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped when the response envelope shape changes.
// Clients check it before parsing data.
const envelopeVersion = 1

// Envelope is the wire shape of every API response.
// Success responses carry data; error responses carry error.
type Envelope struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the standard
// envelope. Registered in huma config so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr,
		}, nil
	}

	return &Envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
