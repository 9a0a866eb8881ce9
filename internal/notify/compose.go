package notify

import (
	"bytes"
	"html/template"
	"strings"

	"activation_fulfiller/internal/model"
)

const ActivationSubject = "Your Activation Codes"

// Payload is the message built for one request; HTML is the body, Text its plain alternative.
type Payload struct {
	Subject string
	HTML    string
	Text    string
}

// html/template escapes every interpolated value, so a product name cannot inject markup.
var activationHTMLTpl = template.Must(template.New("activation").Parse(
	`<p>Dear {{ .Name }},</p>` +
		`<p>Thank you for your order. Here are your activation codes:</p>` +
		`<ul>{{ range .Items }}<li>{{ .Product }}: <strong>{{ .ActivationCode }}</strong></li>{{ end }}</ul>` +
		`<p>Best regards,<br>Support Team</p>`))

// Compose renders the activation-code email. An empty item list yields an empty list section.
func Compose(customerName string, items []model.ActivationItem) Payload {
	data := struct {
		Name  string
		Items []model.ActivationItem
	}{
		Name:  customerName,
		Items: items,
	}

	var buf bytes.Buffer
	// The template is fixed and the data is plain strings, so Execute cannot fail here.
	_ = activationHTMLTpl.Execute(&buf, data)

	text := new(strings.Builder)
	text.WriteString("Dear " + customerName + ",\n\n")
	text.WriteString("Thank you for your order. Here are your activation codes:\n")
	for _, it := range items {
		text.WriteString("- " + it.Product + ": " + it.ActivationCode + "\n")
	}
	text.WriteString("\nBest regards,\nSupport Team\n")

	return Payload{
		Subject: ActivationSubject,
		HTML:    buf.String(),
		Text:    text.String(),
	}
}
