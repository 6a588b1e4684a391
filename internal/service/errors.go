package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UnreachableMessage is shown when no response could be obtained
const UnreachableMessage = "failed to connect to server"

var (
	// ErrRejected matches any *RejectedError
	ErrRejected = errors.New("rejected by service")
	// ErrUnreachable matches any *UnreachableError
	ErrUnreachable = errors.New("service unreachable")
)

// RejectedError means the service answered with a non-2xx status
type RejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	return e.Detail
}

// Is makes errors.Is(err, ErrRejected) true
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// UnreachableError means the request never produced a usable response
type UnreachableError struct {
	Op  string
	Err error
}

func (e *UnreachableError) Error() string {
	return UnreachableMessage
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnreachable) true
func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}

// Cause describes the underlying failure, for logs
func (e *UnreachableError) Cause() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// parseDetail extracts the explanation from a {"detail": ...} error body.
// detail may be a string or any JSON value.
func parseDetail(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		} else if string(payload.Detail) != "null" {
			return string(payload.Detail)
		}
	}

	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%s (status %d)", text, status)
	}
	return fmt.Sprintf("unexpected status: %d", status)
}
