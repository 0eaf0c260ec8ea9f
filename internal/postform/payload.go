package postform

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"github.com/debemdeboas/the-archive-admin/internal/model"
)

// Payload is a validated post ready to be sent to the backend.
type Payload struct {
	ID           model.PostID
	Title        string
	Slug         string
	Content      string
	Meta         string
	Tags         string
	Featured     bool
	ThumbnailURL string
	Thumbnail    *model.Upload
}

// Encode writes every field as multipart/form-data. A selected thumbnail
// file takes precedence over the existing thumbnail URL.
func (p *Payload) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", p.Title},
		{"slug", p.Slug},
		{"content", p.Content},
		{"meta", p.Meta},
		{"tags", p.Tags},
		{"featured", strconv.FormatBool(p.Featured)},
	}
	if p.ID != "" {
		fields = append(fields, [2]string{"id", string(p.ID)})
	}
	if p.Thumbnail == nil && p.ThumbnailURL != "" {
		fields = append(fields, [2]string{"thumbnail", p.ThumbnailURL})
	}

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if p.Thumbnail != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="thumbnail"; filename=%q`, p.Thumbnail.Filename))
		if p.Thumbnail.ContentType != "" {
			h.Set("Content-Type", p.Thumbnail.ContentType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create thumbnail part: %w", err)
		}
		if _, err := part.Write(p.Thumbnail.Data); err != nil {
			return nil, "", fmt.Errorf("write thumbnail: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
