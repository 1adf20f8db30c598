// ABOUTME: Serves the embedded formula language reference as HTML
// ABOUTME: Markdown source is compiled with goldmark on each request

package editor

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
)

//go:embed reference.md
var referenceMarkdown string

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Galton Formula Reference</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code { background: #f2f2f2; padding: 0.1rem 0.3rem; border-radius: 3px; }
pre code { display: block; padding: 0.75rem; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

// handleDocs renders the embedded reference markdown to HTML.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	md := goldmark.New()
	if err := md.Convert([]byte(referenceMarkdown), &buf); err != nil {
		http.Error(w, "failed to render docs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsPage.Execute(w, template.HTML(buf.String()))
}
