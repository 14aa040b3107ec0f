package chatbot

import (
	"bytes"
	"fmt"
	"html/template"
)

var messageTemplates = template.Must(template.New("message").Parse(`
{{- define "message" -}}
<div class="chat-message" id="msg-{{.ID}}"><div class="{{.Role.Class}}"><strong>{{.Role.Label}}:</strong> {{if eq .Kind "pdf"}}{{template "pdf" .}}{{else if eq .Kind "website"}}{{template "website" .}}{{else}}<span class="message-text">{{.Text}}</span>{{end}}</div></div>
{{- end -}}

{{- define "pdf" -}}
<div class="pdf-display"><iframe src="{{.URL}}" width="100%" height="100%" type="application/pdf">Your browser does not support PDFs. Please download the PDF to view it: <a href="{{.URL}}">Download PDF</a>.</iframe></div>
{{- end -}}

{{- define "website" -}}
<div class="embedded-website"><iframe src="{{.URL}}" width="100%" height="100%">Your browser does not support embedded websites.</iframe></div>
{{- end -}}
`))

// RenderHTML renders m as a transcript entry. All content is escaped.
func RenderHTML(m Message) (template.HTML, error) {
	var buf bytes.Buffer
	if err := messageTemplates.ExecuteTemplate(&buf, "message", m); err != nil {
		return "", fmt.Errorf("could not render message %s: %w", m.ID, err)
	}
	return template.HTML(buf.String()), nil
}

// RenderText renders m as a single terminal line
func RenderText(m Message) string {
	switch m.Kind {
	case KindPDF:
		return fmt.Sprintf("%s: [PDF] %s", m.Role.Label(), m.URL)
	case KindWebsite:
		return fmt.Sprintf("%s: [Website] %s", m.Role.Label(), m.URL)
	default:
		return fmt.Sprintf("%s: %s", m.Role.Label(), m.Text)
	}
}
