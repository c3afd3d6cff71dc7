package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserError_Error_IncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewIOError("cannot write artifact", "artifact.md", "free up disk space", cause)

	require.Contains(t, err.Error(), "cannot write artifact")
	require.Contains(t, err.Error(), "disk full")
}

func TestUserError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewConfigError("bad config", "detail", "fix it", cause)

	require.True(t, errors.Is(err, cause))
}

func TestUserError_Format_JSON(t *testing.T) {
	err := NewInputError("bad input", "empty text", "supply some text", nil)
	out := err.Format(true)
	require.Contains(t, out, `"kind":"input"`)
	require.Contains(t, out, `"title":"bad input"`)
}

func TestUserError_Format_Plain(t *testing.T) {
	err := NewPermissionError("cannot write", "path", "check perms", nil)
	out := err.Format(false)
	require.Contains(t, out, "Error: cannot write")
	require.Contains(t, out, "check perms")
}
