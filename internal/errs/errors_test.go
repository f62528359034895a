package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	plain := New(ErrKindNotFound, "no such file")
	assert.Equal(t, "[not_found] no such file", plain.Error())

	wrapped := Wrap(ErrKindIOFailure, "download failed", errors.New("connection reset"))
	assert.Equal(t, "[io_failure] download failed: connection reset", wrapped.Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		kind ErrKind
		pred func(error) bool
	}{
		{ErrKindUnsupportedProtocol, IsUnsupportedProtocol},
		{ErrKindFileSystemOffline, IsFileSystemOffline},
		{ErrKindNotFound, IsNotFound},
		{ErrKindCancelled, IsCancelled},
		{ErrKindInvalidArgument, IsInvalidArgument},
		{ErrKindNotFromModel, IsNotFromModel},
		{ErrKindIOFailure, IsIOFailure},
		{ErrKindPermissionDenied, IsPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := fmt.Errorf("outer: %w", New(tt.kind, "x"))
			assert.True(t, tt.pred(err))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrKindIOFailure, "msg", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrKindUnknown, KindOf(cause))
	assert.Equal(t, ErrKindIOFailure, KindOf(err))
}

func TestHasKind(t *testing.T) {
	cancelled := New(ErrKindCancelled, "download cancelled")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"direct", cancelled, true},
		{"below another kind", Wrap(ErrKindFileSystemOffline, "probe", cancelled), true},
		{"through fmt wrapping", fmt.Errorf("fetch: %w", cancelled), true},
		{"inside a join", errors.Join(errors.New("other"), cancelled), true},
		{"different kind", Wrap(ErrKindIOFailure, "read", errors.New("reset")), false},
		{"plain error", errors.New("cancelled"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasKind(tt.err, ErrKindCancelled))
		})
	}
}
