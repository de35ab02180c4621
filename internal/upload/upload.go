// Package upload turns multipart submissions into in-memory images.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"profileai/internal/domain"
)

const maxValueBytes = 1 << 20

// Form holds every file part (in submission order) and every plain value of
// a request body.
type Form struct {
	Files  []domain.UploadedImage
	Values map[string][]string
}

// Rule describes which file fields an endpoint accepts and how many images it
// expects across them.
type Rule struct {
	Fields []string
	Min    int
	Max    int
	Label  string
}

// Read consumes the request body. Multipart bodies are streamed part by part;
// url-encoded bodies yield values only.
func Read(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Form, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	form := &Form{Values: map[string][]string{}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, domain.NewInputError("invalid form body")
		}
		for k, v := range r.PostForm {
			form.Values[k] = append(form.Values[k], v...)
		}
		return form, nil
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, domain.NewInputError("invalid multipart form")
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		if err := form.consume(part); err != nil {
			_ = part.Close()
			return nil, err
		}
		_ = part.Close()
	}
	return form, nil
}

func (f *Form) consume(part *multipart.Part) error {
	name := part.FormName()
	if name == "" {
		return nil
	}
	if part.FileName() == "" {
		raw, err := io.ReadAll(io.LimitReader(part, maxValueBytes+1))
		if err != nil {
			return readError(err)
		}
		if len(raw) > maxValueBytes {
			return domain.NewInputError(fmt.Sprintf("field %q is too large", name))
		}
		f.Values[name] = append(f.Values[name], string(raw))
		return nil
	}
	data, err := io.ReadAll(part)
	if err != nil {
		return readError(err)
	}
	if len(data) == 0 {
		return domain.NewInputError(fmt.Sprintf("file %q is empty", part.FileName()))
	}
	mimeType := DetectMIME(part.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.NewInputError(fmt.Sprintf("file %q is not an image (%s)", part.FileName(), mimeType))
	}
	f.Files = append(f.Files, domain.UploadedImage{
		Field:    name,
		Filename: part.FileName(),
		MIMEType: mimeType,
		Data:     data,
	})
	return nil
}

// Value returns the first trimmed value for key.
func (f *Form) Value(key string) string {
	if f == nil {
		return ""
	}
	if v := f.Values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// Images returns the files submitted under rule.Fields, preserving submission
// order, and enforces the rule's bounds.
func (f *Form) Images(rule Rule) ([]domain.UploadedImage, error) {
	accepted := make(map[string]struct{}, len(rule.Fields))
	for _, field := range rule.Fields {
		accepted[field] = struct{}{}
	}
	var out []domain.UploadedImage
	if f != nil {
		for _, img := range f.Files {
			if _, ok := accepted[img.Field]; ok {
				out = append(out, img)
			}
		}
	}
	label := rule.Label
	if label == "" {
		label = "image"
	}
	if len(out) < rule.Min {
		if rule.Min == 1 {
			return nil, domain.NewInputError(fmt.Sprintf("%s is required", label))
		}
		return nil, domain.NewInputError(fmt.Sprintf("at least %d %s files are required", rule.Min, label))
	}
	if rule.Max > 0 && len(out) > rule.Max {
		return nil, domain.NewInputError(fmt.Sprintf("at most %d %s files are allowed, got %d", rule.Max, label, len(out)))
	}
	return out, nil
}

// DetectMIME prefers the declared part type and falls back to sniffing.
func DetectMIME(declared string, data []byte) string {
	mimeType := strings.TrimSpace(declared)
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	mimeType = strings.ToLower(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
	}
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.NewInputError(fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
	}
	return domain.NewInputError("failed to read multipart body")
}
