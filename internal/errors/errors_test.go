package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{"io", ErrCodeFileNotFound, CategoryIO, SeverityError},
		{"metadata", ErrCodeDecodeFailed, CategoryMetadata, SeverityError},
		{"validation", ErrCodeInvalidPath, CategoryValidation, SeverityError},
		{"batch commit fatal", ErrCodeBatchCommit, CategoryCatalog, SeverityFatal},
		{"catalog corrupt fatal", ErrCodeCatalogCorrupt, CategoryCatalog, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "message", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := New(ErrCodeHashFailed, "read interrupted", nil)
	assert.Equal(t, "[ERR_204_HASH_FAILED] read interrupted", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(ErrCodeFilePermission, cause)
	require.NotNil(t, err)
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Equal(t, "permission denied", err.Message)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(ErrCodeFileNotFound, "missing", nil)
	target := New(ErrCodeFileNotFound, "anything", nil)
	assert.True(t, stderrors.Is(err, target))

	other := New(ErrCodeDiskFull, "full", nil)
	assert.False(t, stderrors.Is(err, other))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeScanFailed, "walk failed", nil).
		WithDetail("path", "/photos/a.jpg").
		WithDetail("op", "readdir")
	assert.Equal(t, "/photos/a.jpg", err.Details["path"])
	assert.Equal(t, "readdir", err.Details["op"])
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeBatchCommit, "flush failed", nil)))
	assert.False(t, IsFatal(New(ErrCodeFileNotFound, "gone", nil)))
	assert.False(t, IsFatal(fmt.Errorf("plain")))
	assert.False(t, IsFatal(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeCatalogLocked, "busy", nil)))
	assert.False(t, IsRetryable(New(ErrCodeInternal, "boom", nil)))
	assert.False(t, IsRetryable(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeExifInvalid, GetCode(New(ErrCodeExifInvalid, "bad exif", nil)))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
}

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "batch_size must be positive", nil).
		WithSuggestion("check .photosync.yaml")
	out := FormatForCLI(err)
	assert.Contains(t, out, "Error: batch_size must be positive")
	assert.Contains(t, out, "Hint: check .photosync.yaml")
	assert.Contains(t, out, ErrCodeConfigInvalid)
}

func TestFormatForLog(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := Wrap(ErrCodeHashFailed, cause).WithDetail("path", "b.png")
	fields := FormatForLog(err)
	assert.Equal(t, ErrCodeHashFailed, fields["error_code"])
	assert.Equal(t, "unexpected EOF", fields["cause"])
	assert.Equal(t, "b.png", fields["detail_path"])
}
