package executor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blizzard-api/internal/common/errors"
)

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	// outcomeUnauthorized is a 401.
	outcomeUnauthorized
	// outcomeRateLimited is a 429.
	outcomeRateLimited
	// outcomeTransient is a 5xx or a transport failure.
	outcomeTransient
	// outcomeRejected is any other 4xx.
	outcomeRejected
	// outcomeFatal ends the loop without classification, e.g. cancellation or an open circuit.
	outcomeFatal
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeSuccess:
		return "success"
	case outcomeUnauthorized:
		return "unauthorized"
	case outcomeRateLimited:
		return "rate_limited"
	case outcomeTransient:
		return "transient"
	case outcomeRejected:
		return "rejected"
	default:
		return "fatal"
	}
}

// outcome is the classified result of one round trip.
type outcome struct {
	kind   outcomeKind
	status int
	resp   *Response
	err    error
}

type action int

const (
	actionDone action = iota
	actionRetry
	actionRefresh
	actionFail
)

type decision struct {
	action action
	delay  time.Duration
	err    error
}

// state is carried across the round trips of one request.
type state struct {
	attempt   int
	refreshed bool
	lastErr   error
}

// classify maps a round trip onto an outcome. transportErr is non-nil when no response
// was received.
func classify(ctx context.Context, status int, header http.Header, body []byte, requestURL string, transportErr error, now time.Time) outcome {
	if transportErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome{kind: outcomeFatal, err: ctxErr}
		}
		if appErr, ok := errors.As(transportErr); ok && appErr.Code == "circuit_open" {
			return outcome{kind: outcomeFatal, err: appErr}
		}
		return outcome{kind: outcomeTransient, err: errors.ConnectionError("request failed", transportErr).WithContext("url", requestURL)}
	}

	o := outcome{status: status}
	detail := upstreamDetail(body)

	switch {
	case status >= 200 && status < 300:
		o.kind = outcomeSuccess
	case status == http.StatusUnauthorized:
		o.kind = outcomeUnauthorized
		o.err = errors.TokenError(messageOr(detail, "access token rejected"), nil).WithResponse(status, requestURL)
	case status == http.StatusTooManyRequests:
		o.kind = outcomeRateLimited
		o.err = errors.RateLimitError(messageOr(detail, "rate limit exceeded"), parseRetryAfter(header.Get("Retry-After"), now)).
			WithResponse(status, requestURL)
	case status >= 500:
		o.kind = outcomeTransient
		o.err = errors.ServerError(fmt.Sprintf("server returned status %d", status), nil).WithResponse(status, requestURL)
	case status == http.StatusBadRequest:
		o.kind = outcomeRejected
		o.err = errors.BadRequestError(messageOr(detail, "bad request")).WithResponse(status, requestURL)
	case status == http.StatusForbidden:
		o.kind = outcomeRejected
		o.err = errors.ForbiddenError(messageOr(detail, "access forbidden")).WithResponse(status, requestURL)
	case status == http.StatusNotFound:
		o.kind = outcomeRejected
		o.err = errors.NotFoundError("resource").WithResponse(status, requestURL)
	default:
		o.kind = outcomeRejected
		o.err = errors.BadRequestError(messageOr(detail, fmt.Sprintf("unexpected status %d", status))).WithResponse(status, requestURL)
	}
	return o
}

// decide picks the next step. It never sleeps or performs I/O.
func decide(st state, o outcome, policy RetryPolicy, userToken bool) decision {
	switch o.kind {
	case outcomeSuccess:
		return decision{action: actionDone}

	case outcomeUnauthorized:
		if userToken || st.refreshed {
			return decision{action: actionFail, err: o.err}
		}
		return decision{action: actionRefresh}

	case outcomeTransient:
		if st.attempt >= policy.MaxAttempts {
			return decision{action: actionFail, err: exhausted(st, o)}
		}
		return decision{action: actionRetry, delay: policy.Backoff(st.attempt)}

	default:
		return decision{action: actionFail, err: o.err}
	}
}

// exhausted converts the last transient failure into the ServerError surfaced to callers.
func exhausted(st state, o outcome) error {
	msg := fmt.Sprintf("request failed after %d attempts", st.attempt)
	serverErr := errors.ServerError(msg, o.err)
	if appErr, ok := errors.As(o.err); ok {
		serverErr.WithResponse(appErr.StatusCode, appErr.RequestURL)
		if url, ok := appErr.Context["url"].(string); ok && serverErr.RequestURL == "" {
			serverErr.RequestURL = url
		}
	}
	return serverErr
}

// parseRetryAfter accepts delay-seconds or an HTTP-date. Anything else yields zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// upstreamDetail extracts the message from a Battle.net error document
// ({"code":404,"type":"BLZWEBAPI00000404","detail":"Not Found"}).
func upstreamDetail(body []byte) string {
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	var doc struct {
		Detail string `json:"detail"`
		Error  string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	if doc.Detail != "" {
		return doc.Detail
	}
	return doc.Error
}

func messageOr(detail, fallback string) string {
	if detail != "" {
		return detail
	}
	return fallback
}

func isContextErr(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
