package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "direct classified error",
			err:  New(NotFound, "post not found"),
			want: NotFound,
		},
		{
			name: "wrapped classified error",
			err:  fmt.Errorf("get post: %w", New(PermissionDenied, "denied")),
			want: PermissionDenied,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(RemoteUnavailable, "store unreachable", cause)

	assert.True(t, IsKind(err, RemoteUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "store unreachable")

	assert.Nil(t, Wrap(RemoteUnavailable, "no-op", nil))

	// The nil must survive assignment to an error variable, not just
	// compare nil as a concrete pointer.
	var asErr error = Wrap(RemoteUnavailable, "no-op", nil)
	assert.NoError(t, asErr)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "weak password", Message(New(WeakPassword, "weak password")))
	assert.Equal(t, "something went wrong, please try again", Message(errors.New("internal detail")))
}
