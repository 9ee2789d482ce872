package ai

// Failure is the closed set of reasons a completion did not produce model
// text. Provider error codes are mapped onto it by Classify.
type Failure int

const (
	FailureNone Failure = iota
	FailureBackendDisabled
	FailureQuotaExceeded
	FailureInvalidCredentials
	FailureRateLimited
	FailureEmptyCompletion
	FailureTimeout
	FailureGeneric
)

var failureNames = map[Failure]string{
	FailureNone:               "none",
	FailureBackendDisabled:    "backend_disabled",
	FailureQuotaExceeded:      "quota_exceeded",
	FailureInvalidCredentials: "invalid_credentials",
	FailureRateLimited:        "rate_limited",
	FailureEmptyCompletion:    "empty_completion",
	FailureTimeout:            "timeout",
	FailureGeneric:            "backend_failure",
}

func (f Failure) String() string {
	if name, ok := failureNames[f]; ok {
		return name
	}
	return "unknown"
}

// Usage mirrors the token accounting reported by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Outcome is the result of one completion attempt. Text is always set:
// model output on success, a fallback reply otherwise.
type Outcome struct {
	Text    string
	Failure Failure
	Usage   *Usage
}

// OK reports whether Text is genuine model output.
func (o Outcome) OK() bool {
	return o.Failure == FailureNone
}
