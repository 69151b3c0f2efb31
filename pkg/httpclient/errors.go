package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront-cart/pkg/errors"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// DownstreamErrorResponse is the structured error body returned by services
// that use the {data, error} envelope.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError is returned for a 5xx response that was rejected by the
// circuit breaker.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Body)
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError. The response body is fully consumed and closed.
//
// 404 maps to NotFound for resource/id, 5xx to NetworkFailure; structured
// bodies keep their code and message for the remaining statuses.
func ParseResponseError(resp *http.Response, serviceName, resource, id string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.NetworkFailure(serviceName, fmt.Errorf("read %d response body: %w", resp.StatusCode, err))
	}

	code, message := "", string(bodyBytes)
	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil && downstream.Error != nil {
		code, message = downstream.Error.Code, downstream.Error.Message
	}

	return mapDownstreamError(resp.StatusCode, code, message, serviceName, resource, id)
}

func mapDownstreamError(status int, code, message, serviceName, resource, id string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(resource, id)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status >= 500:
		return apperrors.NetworkFailure(serviceName, &StatusError{StatusCode: status, Body: message})
	default:
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", status)
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}
