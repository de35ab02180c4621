package runlog

import (
	"bytes"
	"encoding/base64"

	"github.com/disintegration/imaging"

	"profileai/internal/domain"
)

const previewSize = 128

// Thumbnail shrinks img to a small JPEG data URL. Formats the decoder does
// not know yield an empty preview but keep their MIME type.
func Thumbnail(img domain.UploadedImage) Preview {
	p := Preview{MIMEType: img.MIMEType}
	src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return p
	}
	thumb := imaging.Fit(src, previewSize, previewSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(70)); err != nil {
		return p
	}
	p.Preview = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return p
}

// Thumbnails builds previews for images in order.
func Thumbnails(images []domain.UploadedImage) []Preview {
	out := make([]Preview, 0, len(images))
	for _, img := range images {
		out = append(out, Thumbnail(img))
	}
	return out
}
