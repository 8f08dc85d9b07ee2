// Package errors provides structured error handling for photosync.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 3XX: Metadata extraction errors
//   - 4XX: Validation errors
//   - 5XX: Catalog and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryMetadata indicates image metadata extraction errors.
	CategoryMetadata Category = "METADATA"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryCatalog indicates catalog storage and internal errors.
	CategoryCatalog Category = "CATALOG"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the file failed but the run continues.
	SeverityError Severity = "ERROR"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"
	ErrCodeHashFailed     = "ERR_204_HASH_FAILED"
	ErrCodeScanFailed     = "ERR_205_SCAN_FAILED"

	// Metadata errors (300-399)
	ErrCodeDecodeFailed = "ERR_301_DECODE_FAILED"
	ErrCodeExifInvalid  = "ERR_302_EXIF_INVALID"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath  = "ERR_402_INVALID_PATH"

	// Catalog and internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeCatalogOpen    = "ERR_502_CATALOG_OPEN"
	ErrCodeCatalogCorrupt = "ERR_503_CATALOG_CORRUPT"
	ErrCodeBatchCommit    = "ERR_504_BATCH_COMMIT"
	ErrCodeCatalogLocked  = "ERR_505_CATALOG_LOCKED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryCatalog
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryCatalog
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryMetadata
	case '4':
		return CategoryValidation
	default:
		return CategoryCatalog
	}
}

// severityFromCode determines severity based on error code.
// Everything outside the fatal set skips one file and counts it;
// metadata failures included, since a half-described record is not
// written either.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCatalogCorrupt, ErrCodeBatchCommit, ErrCodeDiskFull, ErrCodeCatalogOpen:
		return SeverityFatal
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	return code == ErrCodeCatalogLocked
}
