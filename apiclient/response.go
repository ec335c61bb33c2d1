package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/jrsteele09/star-console/internal/utils"
)

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Envelope is the backend's standard {message, data} payload.
type Envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Page is a paginated envelope.
type Page[T any] struct {
	Message  string `json:"message"`
	Data     []T    `json:"data"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Total    int    `json:"total"`
}

// Decode unmarshals the response body into T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("%w: %w", consoleerrors.ErrProtocol, err)
	}
	return v, nil
}

// DecodeData unmarshals an Envelope and returns its data.
func DecodeData[T any](resp *Response) (T, error) {
	env, err := Decode[Envelope[T]](resp)
	if err != nil {
		return env.Data, err
	}
	return env.Data, nil
}

// backendMessage extracts the {"message": "..."} field of an error body, if present.
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// DecodeTolerant is Decode for payloads that may carry raw control characters inside strings,
// which the backend passes through from repository metadata. Control characters are blanked and
// the body is parsed again.
func DecodeTolerant[T any](resp *Response) (T, error) {
	v, err := Decode[T](resp)
	if err == nil {
		return v, nil
	}
	var sanitized T
	if err := json.Unmarshal([]byte(utils.StripControlChars(string(resp.Body))), &sanitized); err != nil {
		return sanitized, fmt.Errorf("%w: %w", consoleerrors.ErrProtocol, err)
	}
	return sanitized, nil
}
