package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFileHeader creates a multipart.FileHeader holding content; size overrides
// the reported size
func createTestFileHeader(filename string, size int64, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/png")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)
	defer form.RemoveAll()

	if len(form.File["image"]) > 0 {
		fileHeader := form.File["image"][0]
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidateImageFile(t *testing.T) {
	content := append(PNGSignature(), []byte("rest of the image")...)

	tests := []struct {
		name     string
		filename string
		size     int64
		wantCode string
	}{
		{"png under the limit", "rose.png", int64(len(content)), ""},
		{"extension is case-insensitive", "rose.PNG", int64(len(content)), ""},
		{"exactly the limit", "rose.png", MaxFileSize, ""},
		{"too large", "rose.png", MaxFileSize + 1, "FILE_TOO_LARGE"},
		{"jpg", "rose.jpg", int64(len(content)), "INVALID_FILE_FORMAT"},
		{"jpeg", "rose.jpeg", int64(len(content)), "INVALID_FILE_FORMAT"},
		{"gif", "rose.gif", int64(len(content)), "INVALID_FILE_FORMAT"},
		{"no extension", "rose", int64(len(content)), "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileHeader := createTestFileHeader(tt.filename, tt.size, content)
			require.NotNil(t, fileHeader)

			err := ValidateImageFile(fileHeader)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}

			var fileErr *FileUploadError
			require.ErrorAs(t, err, &fileErr)
			assert.Equal(t, tt.wantCode, fileErr.Code)
		})
	}
}

func TestValidateImageFile_Missing(t *testing.T) {
	var fileErr *FileUploadError
	require.ErrorAs(t, ValidateImageFile(nil), &fileErr)
	assert.Equal(t, "MISSING_FILE", fileErr.Code)
}

func TestValidatePNGContent(t *testing.T) {
	assert.NoError(t, ValidatePNGContent(append(PNGSignature(), 0x00, 0x01)))

	var fileErr *FileUploadError
	require.ErrorAs(t, ValidatePNGContent([]byte("GIF89a not a png")), &fileErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)

	require.ErrorAs(t, ValidatePNGContent(nil), &fileErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)

	big := make([]byte, MaxFileSize+1)
	copy(big, PNGSignature())
	require.ErrorAs(t, ValidatePNGContent(big), &fileErr)
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
}

func TestPNGSignatureIsACopy(t *testing.T) {
	sig := PNGSignature()
	sig[0] = 0
	assert.Equal(t, byte(0x89), PNGSignature()[0])
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{Code: "TEST_CODE", Message: "Test error message"}
	assert.Equal(t, "Test error message", err.Error())
}
