package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrnoString(t *testing.T) {
	require.Equal(t, "EINVAL", EINVAL.String())
	require.Equal(t, "ERESTART", ERESTART.String())
	require.Equal(t, "EJUSTRETURN", EJUSTRETURN.String())
	require.Equal(t, "{Errno 99}", Errno(99).String())
}

func TestSignalString(t *testing.T) {
	require.Equal(t, "SIGSEGV", SIGSEGV.String())
	require.Equal(t, "{Signal 33}", Signal(33).String())
}
