package postform

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/debemdeboas/the-archive-admin/internal/model"
)

// sniffImage detects the content type of file from its bytes and reports
// whether it is an image. The detected type replaces whatever the browser
// claimed.
func sniffImage(file *model.Upload) bool {
	if file == nil || len(file.Data) == 0 {
		return false
	}
	mt := mimetype.Detect(file.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return false
	}
	file.ContentType = mt.String()
	return true
}

func dataURL(file *model.Upload) string {
	return "data:" + file.ContentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
}

// ImageSnippet is the markdown that embeds url.
func ImageSnippet(url string) string {
	if url == "" {
		return ""
	}
	return "![Add image description](" + url + ")"
}
