package utils

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
	// AllowedImageFormat is PNG
	AllowedImageFormat = ".png"
)

// pngSignature is the fixed header of every PNG file
var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates the uploaded file format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	// The form had no image part
	if fileHeader == nil {
		return &FileUploadError{Code: "MISSING_FILE", Message: "No image file provided"}
	}

	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != AllowedImageFormat {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", AllowedImageFormat),
		}
	}

	return nil
}

// ValidatePNGContent checks the bytes actually are a PNG of acceptable size
func ValidatePNGContent(content []byte) error {
	// The header size is client supplied, so check the bytes actually read
	if len(content) > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check the magic bytes; a renamed file keeps its real signature
	if !bytes.HasPrefix(content, pngSignature) {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "File content is not a PNG image",
		}
	}
	return nil
}

// PNGSignature returns the eight magic bytes every PNG file starts with
func PNGSignature() []byte {
	return append([]byte(nil), pngSignature...)
}
