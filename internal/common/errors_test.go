package common

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadError_MatchesSentinelAndReason(t *testing.T) {
	err := error(&UploadError{Key: "images/x", Reason: io.ErrUnexpectedEOF})

	assert.True(t, errors.Is(err, ErrUploadFailure))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrIOFailure))
	assert.Contains(t, err.Error(), "images/x")
}

func TestPermissionError_MatchesPermissionDenied(t *testing.T) {
	err := error(&PermissionError{Capability: CapabilityCamera})

	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "permission denied: camera access not granted", err.Error())

	var pe *PermissionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CapabilityCamera, pe.Capability)
}
