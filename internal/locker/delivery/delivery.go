// Package delivery sends password-reset links to users.
package delivery

import (
	"bytes"
	"html/template"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/service"
)

const resetSubject = "Redefinição de senha"

var resetHTML = template.Must(template.New("reset").Parse(`<p>Olá,</p>
<p>Recebemos um pedido para redefinir a sua senha.</p>
<p><a href="{{.ResetURL}}">Clique aqui para redefinir a senha</a></p>
<p>O link expira em {{.Expires}}.</p>
<p>Se você não pediu a redefinição, ignore este email.</p>
`))

type resetView struct {
	ResetURL template.URL
	Expires  string
}

func renderResetHTML(d service.ResetDelivery) ([]byte, error) {
	var buf bytes.Buffer
	err := resetHTML.Execute(&buf, resetView{
		ResetURL: template.URL(d.ResetURL),
		Expires:  d.ExpiresAt.UTC().Format(time.RFC1123),
	})
	return buf.Bytes(), err
}

func renderResetText(d service.ResetDelivery) []byte {
	var buf bytes.Buffer
	buf.WriteString("Recebemos um pedido para redefinir a sua senha.\n\n")
	buf.WriteString("Link: " + d.ResetURL + "\n")
	buf.WriteString("Expira em: " + d.ExpiresAt.UTC().Format(time.RFC1123) + "\n")
	return buf.Bytes()
}
