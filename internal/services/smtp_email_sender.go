package services

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

type SMTPSender struct {
	Host   string
	Port   string
	User   string
	Pass   string
	From   string
	UseTLS bool
}

func (s *SMTPSender) Send(to string, subject string, body string) error {
	addr := net.JoinHostPort(s.Host, s.Port)

	from, err := mail.ParseAddress(s.From)
	if err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	msg := buildMessage(s.From, to, subject, body, time.Now())

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	if s.UseTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
		if err != nil {
			return err
		}
		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()
		if auth != nil {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
		if err := c.Mail(from.Address); err != nil {
			return err
		}
		if err := c.Rcpt(to); err != nil {
			return err
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		_, err = w.Write(msg)
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
		return err
	}

	return smtp.SendMail(addr, auth, from.Address, []string{to}, msg)
}

func buildMessage(from, to, subject, body string, date time.Time) []byte {
	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=\"utf-8\""},
	}

	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(msg.String())
}
