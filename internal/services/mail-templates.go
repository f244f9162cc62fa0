package services

import (
	"bytes"
	"embed"
	"html/template"
)

const (
	templateWelcome        = "welcome.html"
	templateVerifyReminder = "verify-reminder.html"
	templateResetPassword  = "reset-password.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var mailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type mailData struct {
	Name string
	Link string
}

func renderMail(name string, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
