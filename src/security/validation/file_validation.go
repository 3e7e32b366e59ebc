package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/cryptofolio/backend/src/logger"
)

// ErrValidationFailed marks any upload rejected before parsing.
var ErrValidationFailed = errors.New("file validation failed")

// AllowedClientContentTypes maps client-declared MIME types to whether the
// upload endpoint accepts them.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // older Excel, also used for CSV
	"text/plain":               true,
	"application/octet-stream": true, // generic fallback, parsing decides
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // .xlsx
	"application/zip": true, // .xlsx is a zip container
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[mediaType]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed", ErrValidationFailed, contentType)
	}
	return nil
}

var xlsxMagic = []byte{0x50, 0x4B, 0x03, 0x04} // zip local file header

// ValidateFileContentByMagicBytes checks the actual content signature and
// returns the detected file format, "csv" or "xlsx". Text-like content is
// treated as CSV; a zip signature is treated as an XLSX workbook.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the actual parser sees the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if bytes.HasPrefix(buffer[:n], xlsxMagic) {
		logger.L.Debug("File content identified as XLSX by magic bytes")
		return "xlsx", nil
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	textLikeTypes := map[string]bool{
		"text/plain":               true,
		"text/csv":                 true,
		"application/csv":          true,
		"application/octet-stream": true, // strict CSV parsing decides later
	}
	if !textLikeTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType)
		return "", fmt.Errorf("%w: detected file content type '%s' is not a supported spreadsheet format", ErrValidationFailed, detectedContentType)
	}

	logger.L.Debug("File content identified as CSV", "detectedContentType", detectedContentType)
	return "csv", nil
}
