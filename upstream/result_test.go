package upstream

import (
	"reflect"
	"testing"
)

func TestResultValues(t *testing.T) {
	tests := []struct {
		name    string
		result  Result
		outcome string
		want    any
	}{
		{
			name:    "success",
			result:  Success{Payload: map[string]any{"name": "Ada"}},
			outcome: OutcomeSuccess,
			want:    map[string]any{"name": "Ada"},
		},
		{
			name:    "upstream error",
			result:  UpstreamError{StatusCode: 404, Message: "not found", Token: "abc", Summary: "failed to fetch profile"},
			outcome: OutcomeUpstreamError,
			want: map[string]any{
				"error":   "failed to fetch profile: 404",
				"message": "not found",
				"token":   "abc",
			},
		},
		{
			name:    "transport error",
			result:  TransportError{Message: "connection refused", Summary: "error trying to fetch profile"},
			outcome: OutcomeTransportError,
			want: map[string]any{
				"error":   "error trying to fetch profile",
				"message": "connection refused",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Outcome(); got != tt.outcome {
				t.Errorf("Outcome() = %q, want %q", got, tt.outcome)
			}
			if got := tt.result.Value(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Value() = %#v, want %#v", got, tt.want)
			}
			if IsSuccess(tt.result) != (tt.outcome == OutcomeSuccess) {
				t.Errorf("IsSuccess() mismatch")
			}
		})
	}
}
