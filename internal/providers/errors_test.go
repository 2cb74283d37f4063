package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVendorHTTPErrorMessageCarriesStatus(t *testing.T) {
	err := &VendorHTTPError{Provider: "openai", StatusCode: 503, Status: "503 Service Unavailable"}
	assert.Equal(t, "openai API error: 503 Service Unavailable", err.Error())

	bare := &VendorHTTPError{Provider: "anthropic", StatusCode: http.StatusNotFound}
	assert.Equal(t, "anthropic API error: 404 Not Found", bare.Error())
}

func TestClassifyError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want ErrorType
	}{
		"nil":          {nil, ""},
		"rate status":  {&VendorHTTPError{Provider: "openai", StatusCode: 429}, ErrorRate},
		"client":       {&VendorHTTPError{Provider: "openai", StatusCode: 401}, ErrorClient},
		"server":       {fmt.Errorf("wrapped: %w", &VendorHTTPError{Provider: "openai", StatusCode: 502}), ErrorTransient},
		"canceled":     {context.Canceled, ErrorCanceled},
		"quota text":   {errors.New("insufficient_quota"), ErrorRate},
		"timeout text": {errors.New("i/o timeout"), ErrorTransient},
		"other":        {errors.New("bad things"), ErrorPermanent},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
}
