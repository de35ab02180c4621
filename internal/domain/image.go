package domain

import (
	"encoding/base64"
	"fmt"
)

// UploadedImage is an image buffered in memory for the lifetime of a single
// request. It is never written to disk by the pipeline.
type UploadedImage struct {
	Field    string
	Filename string
	MIMEType string
	Data     []byte
}

// Size returns the payload size in bytes.
func (i UploadedImage) Size() int {
	return len(i.Data)
}

// Base64 returns the standard base64 encoding of the payload.
func (i UploadedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as an inline data reference.
func (i UploadedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Base64())
}
