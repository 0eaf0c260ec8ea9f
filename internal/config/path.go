package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	TemplatesLocalDir = "templates"

	TemplateLayout  = "layout.html"
	TemplateIndex   = "index.html"
	TemplateEditor  = "editor.html"
	TemplatePosts   = "posts.html"
	TemplateCard    = "card.html"
	TemplateNotify  = "notification.html"
	TemplatePreview = "preview.html"
	TemplateHint    = "hint.html"

	BlankThumbnail = StaticUrlPath + "blank.jpg"
)
