package providers

import "strings"

// ErrorKind classifies a gateway failure for the retry policy. Errors cross
// the workflow/activity boundary as flattened application errors, so
// classification works on the message text rather than wrapped sentinels.
type ErrorKind string

const (
	ErrorRateLimited     ErrorKind = "rate_limited"
	ErrorTransient       ErrorKind = "transient"
	ErrorContentRejected ErrorKind = "content_rejected"
	ErrorMalformed       ErrorKind = "malformed"
)

func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "rate limit"), strings.Contains(e, "429"), strings.Contains(e, "too many requests"), strings.Contains(e, "quota"):
		return ErrorRateLimited
	case strings.Contains(e, "safety"), strings.Contains(e, "blocked"), strings.Contains(e, "content policy"), strings.Contains(e, "rejected"), strings.Contains(e, "refused"):
		return ErrorContentRejected
	case strings.Contains(e, "malformed"), strings.Contains(e, "empty choices"), strings.Contains(e, "empty candidates"), strings.Contains(e, "decode"), strings.Contains(e, "unmarshal"):
		return ErrorMalformed
	default:
		// Timeouts, connection resets, 5xx and anything unrecognized: retry.
		return ErrorTransient
	}
}

// Retryable reports whether the retry policy may attempt the call again.
// Content rejections and malformed responses will not improve on retry.
func Retryable(kind ErrorKind) bool {
	return kind == ErrorRateLimited || kind == ErrorTransient
}
