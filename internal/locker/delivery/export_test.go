package delivery

import (
	"net/smtp"

	"github.com/jordan-wright/email"
)

// SetSender swaps the network send for tests.
func (s *SMTPDeliverer) SetSender(fn func(e *email.Email, addr string, a smtp.Auth) error) {
	s.send = fn
}
