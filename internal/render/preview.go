package render

import (
	"html/template"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/util"
)

type Device struct {
	Name   string
	Width  int
	Height int
}

// Devices lists the preview viewports in display order.
var Devices = []Device{
	{Name: "mobile", Width: 375, Height: 667},
	{Name: "tablet", Width: 768, Height: 1024},
	{Name: "desktop", Width: 1280, Height: 800},
}

type Frame struct {
	Device
	Active bool
}

type PreviewData struct {
	Title     string
	Thumbnail string
	Body      template.HTML
	Frames    []Frame
}

// Preview renders content once and returns it framed for every device.
// The first device is the active one.
func Preview(title, content, thumbnail, syntaxTheme string) *PreviewData {
	data := &PreviewData{
		Title:     title,
		Thumbnail: thumbnail,
		Frames:    make([]Frame, len(Devices)),
	}
	if data.Thumbnail == "" {
		data.Thumbnail = config.BlankThumbnail
	}

	for i, d := range Devices {
		data.Frames[i] = Frame{Device: d, Active: i == 0}
	}

	if content == "" {
		return data
	}

	rendered := RenderMarkdownCached([]byte(content), util.ContentHashString(content), syntaxTheme)
	data.Body = template.HTML(rendered.HTML)
	if data.Title == "" {
		data.Title = rendered.Title
	}

	return data
}
