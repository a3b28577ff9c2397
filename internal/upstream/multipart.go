package upstream

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Upload is a file streamed into a multipart form.
type Upload struct {
	FileName string
	Reader   io.Reader
}

// multipartBody encodes string fields plus optional file uploads the way
// the upstream's form endpoints expect.
func multipartBody(fields map[string]string, files map[string]*Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	for name, upload := range files {
		if upload == nil || upload.Reader == nil {
			continue
		}
		part, err := writer.CreateFormFile(name, upload.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", name, err)
		}
		if _, err := io.Copy(part, upload.Reader); err != nil {
			return nil, "", fmt.Errorf("copy form file %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
