package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindAuth
	KindForbidden
	KindValidation
	KindServer
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "other"
	}
}

const (
	GenericMessage   = "Something went wrong. Please try again."
	ForbiddenMessage = "You do not have permission to perform this action."
	ServerMessage    = "Server error. Please try again later."
	NetworkMessage   = "Network error. Please check your connection."
	SessionMessage   = "Your session has expired. Please log in again."
)

// APIError is returned for every failed request.
type APIError struct {
	Kind        ErrorKind
	Status      int
	Message     string
	FieldErrors map[string]string
	Err         error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api %d: %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Message returns the user-facing message carried by err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// errorBody covers the payload shapes the backend uses for failures.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

func kindFor(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= 500:
		return KindServer
	default:
		return KindOther
	}
}

func parseError(status int, body []byte) *APIError {
	e := &APIError{Kind: kindFor(status), Status: status}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		e.Message = strings.TrimSpace(eb.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(eb.Error)
		}
		e.FieldErrors = parseFieldErrors(eb.Errors)
	}
	if len(e.FieldErrors) > 0 && status >= 400 && status < 500 && e.Kind == KindOther {
		e.Kind = KindValidation
	}
	return e
}

// parseFieldErrors accepts {"field": "msg"}, {"field": ["msg", ...]} and
// [{"field": "...", "message": "..."}].
func parseFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := map[string]string{}

	var flat map[string]json.RawMessage
	if json.Unmarshal(raw, &flat) == nil {
		for field, v := range flat {
			var s string
			if json.Unmarshal(v, &s) == nil {
				out[field] = s
				continue
			}
			var list []string
			if json.Unmarshal(v, &list) == nil && len(list) > 0 {
				out[field] = list[0]
			}
		}
		return nilIfEmpty(out)
	}

	var items []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		for _, it := range items {
			field := it.Field
			if field == "" {
				field = it.Path
			}
			msg := it.Message
			if msg == "" {
				msg = it.Msg
			}
			if field != "" {
				out[field] = msg
			}
		}
	}
	return nilIfEmpty(out)
}

func nilIfEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}
