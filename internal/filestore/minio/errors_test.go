package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/koustreak/timefs/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"cancelled", context.Canceled, errs.ErrKindCancelled},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), errs.ErrKindCancelled},
		{"404", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey"}, errs.ErrKindNotFound},
		{"forbidden", miniogo.ErrorResponse{StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"signature", miniogo.ErrorResponse{Code: "SignatureDoesNotMatch"}, errs.ErrKindPermissionDenied},
		{"bad request", miniogo.ErrorResponse{StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidArgument},
		{"other", errors.New("connection reset"), errs.ErrKindIOFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mapError(tt.err, "op")
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.err, e.Cause)
		})
	}

	assert.Nil(t, mapError(nil, "op"))
}
