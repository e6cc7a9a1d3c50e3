package report

import (
	"bytes"
	"fmt"
	"html/template"
)

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"px": func(v float64) string { return fmt.Sprintf("%.1fpx", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: {{px .Width}} {{px .Height}}; margin: 0; }
body { margin: 0; font-family: Inter, Helvetica, Arial, sans-serif; color: #1f2937; }
.page { position: relative; width: {{px .Width}}; height: {{px .Height}}; overflow: hidden; page-break-after: always; }
.page:last-child { page-break-after: auto; }
.block { position: absolute; left: {{px .Margin}}; width: {{px .Content}}; }
.title { font-size: 20px; font-weight: bold; text-align: center; }
.line { font-size: 12px; }
.heading { font-size: 14px; font-weight: bold; }
.criterion h3 { font-size: 11px; margin: 0 0 3px 5px; }
.criterion p { font-size: 10px; line-height: 12px; margin: 0 0 0 10px; white-space: pre-line; }
.placeholder { font-size: 12px; color: #b91c1c; }
.image img { width: 100%; }
.surface { font-size: 12px; line-height: 15px; white-space: pre-wrap; background: #fffdf5; border: 1px solid #e5e7eb; padding: {{px .Margin}}; box-sizing: border-box; }
.surface del { color: #dc2626; text-decoration: line-through; position: relative; }
.surface .handwritten { color: #1e40af; font-style: italic; position: absolute; top: -1em; left: 0; white-space: nowrap; font-size: 10px; text-decoration: none; display: inline-block; }
</style>
</head>
<body>
{{range .Pages}}<section class="page" data-page="{{.Number}}">
{{range .Blocks}}<div class="block {{.Kind}}" style="top: {{px .Y}}">
{{- if eq .Kind "title"}}{{.Text}}
{{- else if eq .Kind "criterion"}}<h3>{{.Text}}: {{.Band}}</h3><p>{{range .Lines}}{{.}}
{{end}}</p>
{{- else if eq .Kind "image"}}<img src="{{.Src}}" alt="Task image">
{{- else if eq .Kind "surface"}}{{.HTML}}
{{- else}}{{.Text}}
{{- end}}</div>
{{end}}</section>
{{end}}</body>
</html>
`))

type pageData struct {
	*Document
	Width, Height, Margin, Content float64
}

// HTML renders the document as a self-contained page. The writing sheet
// markup is inserted as received.
func (d *Document) HTML() ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Document: d,
		Width:    PageWidth,
		Height:   PageHeight,
		Margin:   Margin,
		Content:  ContentWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
