package recognition

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/classroomhq/faceattend/internal/credentials"
)

// Kind classifies a failed API call by how the capture session reacts to it
type Kind int

const (
	// Transient covers network failures and unexpected statuses.
	Transient Kind = iota
	// Unauthenticated means the token is missing, expired or rejected.
	Unauthenticated
	// Forbidden means the account lacks permission for this class.
	Forbidden
	// InvalidInput means the server rejected the payload as malformed.
	InvalidInput
	// NoMatch means the frame was processed but no student was recognized.
	NoMatch
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case InvalidInput:
		return "invalid_input"
	case NoMatch:
		return "no_match"
	default:
		return "transient"
	}
}

// Error is returned for every non-2xx response
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Detail)
	default:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf maps any error returned by the client onto a Kind
func KindOf(err error) Kind {
	if err == nil {
		return Transient
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, credentials.ErrNoToken) || errors.Is(err, credentials.ErrTokenExpired) {
		return Unauthenticated
	}
	return Transient
}

// DetailOf returns the server supplied detail of an API error, if any
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return Unauthenticated
	case http.StatusForbidden:
		return Forbidden
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return InvalidInput
	case http.StatusNotFound:
		return NoMatch
	default:
		return Transient
	}
}

func statusError(status int, body []byte) *Error {
	return &Error{
		Kind:   kindForStatus(status),
		Status: status,
		Detail: parseDetail(body),
	}
}

// parseDetail understands {"detail": "..."}, {"detail": [{"msg": "..."}]}
// and {"message": "..."}; anything else is returned trimmed.
func parseDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if len(item.Loc) > 0 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
				} else {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
		return string(payload.Detail)
	}
	return payload.Message
}
