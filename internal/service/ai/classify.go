package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

// ErrEmptyCompletion marks a successful call whose payload had no text.
var ErrEmptyCompletion = errors.New("empty completion from backend")

// codeRules maps lowercase provider error codes onto failures. Both the
// OpenAI and the Ark code vocabularies are listed; swapping providers only
// means editing this table.
var codeRules = []struct {
	fragment string
	failure  Failure
}{
	{"insufficient_quota", FailureQuotaExceeded},
	{"quotaexceeded", FailureQuotaExceeded},
	{"accountoverdue", FailureQuotaExceeded},
	{"invalid_api_key", FailureInvalidCredentials},
	{"invalid_authentication", FailureInvalidCredentials},
	{"authenticationerror", FailureInvalidCredentials},
	{"rate_limit_exceeded", FailureRateLimited},
	{"ratelimitexceeded", FailureRateLimited},
	{"too many requests", FailureRateLimited},
}

var statusPattern = regexp.MustCompile(`status code:?\s*(\d{3})`)

// Classify turns a backend error into a Failure. It never returns
// FailureBackendDisabled; nil yields FailureNone.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return FailureEmptyCompletion
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var apiErr *arkmodel.APIError
	if errors.As(err, &apiErr) {
		if f, ok := classifyCode(fmt.Sprint(apiErr.Code)); ok {
			return f
		}
		if f, ok := classifyStatus(apiErr.HTTPStatusCode); ok {
			return f
		}
	}

	text := strings.ToLower(err.Error())
	if f, ok := classifyCode(text); ok {
		return f
	}
	if m := statusPattern.FindStringSubmatch(text); m != nil {
		status, _ := strconv.Atoi(m[1])
		if f, ok := classifyStatus(status); ok {
			return f
		}
	}
	return FailureGeneric
}

func classifyCode(code string) (Failure, bool) {
	code = strings.ToLower(code)
	if code == "" {
		return FailureNone, false
	}
	for _, rule := range codeRules {
		if strings.Contains(code, rule.fragment) {
			return rule.failure, true
		}
	}
	return FailureNone, false
}

func classifyStatus(status int) (Failure, bool) {
	switch status {
	case 401, 403:
		return FailureInvalidCredentials, true
	case 402:
		return FailureQuotaExceeded, true
	case 429:
		return FailureRateLimited, true
	case 408, 504:
		return FailureTimeout, true
	default:
		return FailureNone, false
	}
}
