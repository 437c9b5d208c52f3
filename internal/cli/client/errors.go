package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericErrorMessage is shown when the backend gives no usable detail.
const GenericErrorMessage = "Something went wrong. Please try again."

// APIError is a non-2xx response from the backend. Detail is already
// normalized to a single display string.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Detail)
}

// AuthFailure reports whether the backend rejected the credential.
func (e *APIError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// TransportError wraps failures that happened before a response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAuthFailure reports whether err is a 401/403 from the backend.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.AuthFailure()
}

// IsTransport reports whether err is a network/transport failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// DisplayMessage turns err into the string a user should see.
func DisplayMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return GenericErrorMessage
}

// fieldError is one entry of a list-form detail.
type fieldError struct {
	Msg string `json:"msg"`
}

// errorBody is the backend error envelope. Detail is either a string or a
// list of field errors, so it is decoded lazily.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// parseDetail normalizes an error response body to a display string.
func parseDetail(body []byte) string {
	var env errorBody
	if err := json.Unmarshal(body, &env); err != nil {
		return GenericErrorMessage
	}

	if len(env.Detail) > 0 {
		var s string
		if err := json.Unmarshal(env.Detail, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			return GenericErrorMessage
		}

		var list []fieldError
		if err := json.Unmarshal(env.Detail, &list); err == nil {
			if len(list) > 0 && strings.TrimSpace(list[0].Msg) != "" {
				return list[0].Msg
			}
			return GenericErrorMessage
		}
	}

	if msg := strings.TrimSpace(env.Error); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
