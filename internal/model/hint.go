package model

type MarkdownRule struct {
	Title string
	Rule  string
}

var MarkdownRules = []MarkdownRule{
	{Title: "From h1 to h6", Rule: "# Heading -> ###### Heading"},
	{Title: "Blockquote", Rule: "> Your Quote"},
	{Title: "Image", Rule: "![image alt](http://image_url.com)"},
	{Title: "Link", Rule: "[Link Text](http://your_link.com)"},
}

const MarkdownGuideURL = "https://www.markdownguide.org/basic-syntax/"
