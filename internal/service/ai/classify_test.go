package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Failure
	}{
		{"nil", nil, FailureNone},
		{"empty", fmt.Errorf("extract: %w", ErrEmptyCompletion), FailureEmptyCompletion},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), FailureTimeout},
		{"canceled", context.Canceled, FailureGeneric},
		{"ark rate code", &arkmodel.APIError{Code: "RateLimitExceeded.EndpointRPMExceeded", HTTPStatusCode: 429}, FailureRateLimited},
		{"ark quota code", fmt.Errorf("wrapped: %w", &arkmodel.APIError{Code: "QuotaExceeded", HTTPStatusCode: 429}), FailureQuotaExceeded},
		{"ark auth code", &arkmodel.APIError{Code: "AuthenticationError", HTTPStatusCode: 401}, FailureInvalidCredentials},
		{"ark status only", &arkmodel.APIError{Code: "", HTTPStatusCode: 402}, FailureQuotaExceeded},
		{"openai quota text", errors.New("You exceeded your current quota (insufficient_quota)"), FailureQuotaExceeded},
		{"openai key text", errors.New("code: invalid_api_key"), FailureInvalidCredentials},
		{"openai rate text", errors.New("code: rate_limit_exceeded"), FailureRateLimited},
		{"status 401 text", errors.New("error, status code: 401, message: nope"), FailureInvalidCredentials},
		{"status 504 text", errors.New("error, status code: 504"), FailureTimeout},
		{"status 500 text", errors.New("error, status code: 500"), FailureGeneric},
		{"unknown", errors.New("connection reset by peer"), FailureGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestFallbackMessagesAreDistinct(t *testing.T) {
	seen := map[string]Failure{}
	for _, f := range []Failure{FailureQuotaExceeded, FailureInvalidCredentials, FailureRateLimited, FailureTimeout, FailureGeneric} {
		msg := FallbackMessage(f)
		if prev, ok := seen[msg]; ok {
			t.Fatalf("%s and %s share a fallback message", prev, f)
		}
		seen[msg] = f
	}
	if FallbackMessage(FailureEmptyCompletion) != FallbackMessage(FailureGeneric) {
		t.Fatal("empty completion should use the generic message")
	}
}

func TestFailureString(t *testing.T) {
	if FailureRateLimited.String() != "rate_limited" {
		t.Fatalf("unexpected name %q", FailureRateLimited.String())
	}
	if Failure(99).String() != "unknown" {
		t.Fatal("expected unknown for out of range failure")
	}
}
