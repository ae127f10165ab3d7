package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

var notificationTemplate = template.Must(template.New("notification").Parse(
	`<html><body><h2>{{.Subject}}</h2><p>{{.Body}}</p>` +
		`<p>Please check your dashboard for more details.</p>` +
		`<footer><p>This is an automated message - please do not reply directly.</p></footer>` +
		`</body></html>`))

// RenderNotification wraps subject and body in the standard notification skeleton. Both
// values are HTML-escaped.
func RenderNotification(subject, body string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Subject, Body string }{subject, body}
	if err := notificationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return buf.String(), nil
}
