package api

import (
	"embed"
	"html/template"
)

const postTemplate = "post.html"

//go:embed templates/*.tmpl
var templateFS embed.FS

// Post bodies come from the content store and are rendered as-is.
var templateFuncs = template.FuncMap{
	"rawHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
}
