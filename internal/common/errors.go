// Package common defines the error kinds shared by the capture pipeline,
// the media listers and the upload client. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Platform capability errors.
	ErrPermissionDenied = errors.New("permission denied")

	// Camera errors (busy, disconnected, misconfigured, closed).
	ErrDeviceUnavailable = errors.New("device unavailable")

	// Post-processing errors.
	ErrDecodeFailure = errors.New("decode failure")
	ErrIOFailure     = errors.New("io failure")

	// Remote store errors.
	ErrUploadFailure = errors.New("upload failure")

	ErrorNotFound = errors.New("not found")
)

// UploadError carries the reason a single upload job failed.
// It matches ErrUploadFailure under errors.Is.
type UploadError struct {
	Key    string
	Reason error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Key, e.Reason)
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUploadFailure, e.Reason}
}

// PermissionError names the capability that was missing.
type PermissionError struct {
	Capability string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s access not granted", ErrPermissionDenied, e.Capability)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }
