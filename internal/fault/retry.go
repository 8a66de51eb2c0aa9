package fault

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Retryable classifies an error for the MQ consumer path.
// Returns (retryable, label); the label ends up in logs and metrics.
func Retryable(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// Contract violations are final regardless of how often we retry.
	if IsNotFound(err) {
		return false, "not_found"
	}
	if IsValidation(err) {
		return false, "validation"
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, "row_not_found"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
		return false, "duplicate_key"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, "network_error"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	if strings.Contains(errStr, "connection") {
		return true, "db_connection_error"
	}

	if IsExternal(err) {
		return true, "external_service"
	}

	// Unknown errors are not retried; a poisoned event must not loop.
	return false, "unknown_error"
}
