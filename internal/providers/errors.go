package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrMalformedFrame ends a stream when the frame policy is FrameFail.
var ErrMalformedFrame = errors.New("malformed stream frame")

// VendorHTTPError is returned for any non-2xx vendor response. Its message
// always carries the numeric status so retry classification can see it.
type VendorHTTPError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *VendorHTTPError) Error() string {
	status := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprintf("%d", e.StatusCode)))
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %d %s", e.Provider, e.StatusCode, status)
}

// checkResponse turns a non-2xx response into a VendorHTTPError and closes the body.
func checkResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &VendorHTTPError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

type ErrorType string

const (
	ErrorClient    ErrorType = "client"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorCanceled  ErrorType = "canceled"
	ErrorPermanent ErrorType = "permanent"
)

// ClassifyError buckets a provider failure for logging and the call log.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorCanceled
	}
	var httpErr *VendorHTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ErrorRate
		case httpErr.StatusCode >= 400 && httpErr.StatusCode < 500:
			return ErrorClient
		default:
			return ErrorTransient
		}
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "rate"), strings.Contains(e, "quota"):
		return ErrorRate
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"),
		strings.Contains(e, "connection"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
