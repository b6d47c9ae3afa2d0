package rendering

import (
	"bytes"
	"html/template"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<title>{{.Title}} {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; color: #111; }
.company { font-size: 9pt; }
.company p:first-child { font-weight: bold; font-size: 11pt; }
h1 { text-align: center; margin-bottom: 0; }
.number { text-align: center; margin-top: 4px; }
.cancelled { text-align: center; color: #c00; font-weight: bold; }
h2 { border-bottom: 1px solid #333; font-size: 12pt; margin-top: 18px; }
table { width: 100%; border-collapse: collapse; }
td { border: 1px solid #999; padding: 4px 6px; }
td.value { text-align: right; }
tr.strong td { font-weight: bold; }
.mentions { font-size: 8pt; font-style: italic; margin-top: 12px; }
p { margin: 2px 0; }
</style>
</head>
<body>
<div class="company">{{range .Company}}<p>{{.}}</p>{{end}}</div>
<h1>{{.Title}}</h1>
<p class="number">N° {{.Number}} du {{.IssuedOn}}</p>
{{if .Cancelled}}<p class="cancelled">{{.CancelMsg}}</p>{{end}}
<h2>Client</h2>
{{range .Client}}<p>{{.}}</p>{{end}}
<h2>Véhicule</h2>
<table>{{range .Vehicle}}<tr><td>{{.Label}}</td><td class="value">{{.Value}}</td></tr>{{end}}</table>
{{if .Amounts}}<h2>Montants</h2>
<table>{{range .Amounts}}<tr{{if .Strong}} class="strong"{{end}}><td>{{.Label}}</td><td class="value">{{.Value}}</td></tr>{{end}}</table>{{end}}
{{if .Mentions}}<div class="mentions">{{range .Mentions}}<p>{{.}}</p>{{end}}</div>{{end}}
</body>
</html>
`))

// renderHTML executes the document template over v
func renderHTML(v *view) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
