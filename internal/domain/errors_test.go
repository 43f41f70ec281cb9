package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected int
	}{
		{ErrorKindValidation, http.StatusBadRequest},
		{ErrorKindExtraction, http.StatusBadRequest},
		{ErrorKindUnclassified, http.StatusInternalServerError},
		{ErrorKindUnavailable, http.StatusNotFound},
		{ErrorKindAccessDenied, http.StatusForbidden},
		{ErrorKindSizeLimit, http.StatusRequestEntityTooLarge},
		{ErrorKindTimeout, http.StatusGatewayTimeout},
		{ErrorKindStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", NewFetchError(ErrorKindAccessDenied, "private video", nil))
	assert.Equal(t, ErrorKindAccessDenied, KindOf(wrapped))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(wrapped))
	assert.Equal(t, "private video", PublicMessage(wrapped))

	deadline := fmt.Errorf("probe: %w", context.DeadlineExceeded)
	assert.Equal(t, ErrorKindTimeout, KindOf(deadline))

	plain := errors.New("boom")
	assert.Equal(t, ErrorKindUnclassified, KindOf(plain))
	assert.Equal(t, "Download failed", PublicMessage(plain))
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed to write file", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to write file: disk full", err.Error())
}
