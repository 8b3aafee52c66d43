package upstream

import "fmt"

// Outcome labels.
const (
	OutcomeSuccess        = "success"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeTransportError = "transport_error"
)

// Result is the normalized outcome of one upstream call. The set of
// implementations is closed: Success, UpstreamError and TransportError.
type Result interface {
	// Outcome classifies the result.
	Outcome() string

	// Value is the JSON-ready value handed back to the caller.
	Value() any

	isResult()
}

// Success carries the decoded JSON body of a 200 reply.
type Success struct {
	Payload any
}

// UpstreamError describes a non-200 reply. Token is the token that was
// sent; it is echoed back to the caller to aid debugging.
type UpstreamError struct {
	StatusCode int
	Message    string
	Token      string
	Summary    string
}

// TransportError describes a failure to complete the exchange: the request
// could not be built or sent, or the reply could not be read or decoded.
type TransportError struct {
	Message string
	Summary string
}

func (Success) Outcome() string        { return OutcomeSuccess }
func (UpstreamError) Outcome() string  { return OutcomeUpstreamError }
func (TransportError) Outcome() string { return OutcomeTransportError }

func (s Success) Value() any { return s.Payload }

func (e UpstreamError) Value() any {
	return map[string]any{
		"error":   fmt.Sprintf("%s: %d", e.Summary, e.StatusCode),
		"message": e.Message,
		"token":   e.Token,
	}
}

func (e TransportError) Value() any {
	return map[string]any{
		"error":   e.Summary,
		"message": e.Message,
	}
}

func (Success) isResult()        {}
func (UpstreamError) isResult()  {}
func (TransportError) isResult() {}

// IsSuccess reports whether r is a Success.
func IsSuccess(r Result) bool {
	_, ok := r.(Success)
	return ok
}
