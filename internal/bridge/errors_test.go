package bridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := slotError(ErrCodeFatalSequenceGap, "chainX", 5, "v1", "id exceeds latest message id + 1 (4)")
	assert.Equal(t, "FATAL_SEQUENCE_GAP: id exceeds latest message id + 1 (4) (chain=chainX, id=5)", err.Error())

	err = newError(ErrCodeUnauthorized, "caller %q is not a %s", "bob", "locker")
	assert.Equal(t, `UNAUTHORIZED: caller "bob" is not a locker`, err.Error())
}

func TestCodeOf_Wrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("relay: %w", &Error{Code: ErrCodeExecuteMessageFailed, Message: "outbound call failed", Cause: cause})

	assert.Equal(t, ErrCodeExecuteMessageFailed, CodeOf(err))
	assert.True(t, IsCode(err, ErrCodeExecuteMessageFailed))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, ErrCodeNotFound))
}
