package delivery

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strconv"

	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDeliverer emails reset links as multipart HTML/text messages.
type SMTPDeliverer struct {
	cfg  SMTPConfig
	send func(e *email.Email, addr string, a smtp.Auth) error
}

var _ service.TokenDelivery = (*SMTPDeliverer)(nil)

func NewSMTPDeliverer(cfg SMTPConfig) (*SMTPDeliverer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address required")
	}
	return &SMTPDeliverer{
		cfg:  cfg,
		send: func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
	}, nil
}

func (s *SMTPDeliverer) Deliver(ctx context.Context, d service.ResetDelivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := renderResetHTML(d)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{d.To}
	e.Subject = resetSubject
	e.HTML = html
	e.Text = renderResetText(d)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return s.send(e, net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)), auth)
}
