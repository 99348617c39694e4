package services

import (
	"context"

	"cashflow/internal/logging"
)

// LogSender stands in for SMTP in local development. It records that a
// message would have been sent without writing its body, which may hold a
// recovery code.
type LogSender struct {
	Log logging.Logger
}

func (s *LogSender) Send(to string, subject string, body string) error {
	s.Log.Info(context.Background(), "email not sent, smtp disabled", "to", to, "subject", subject, "body_bytes", len(body))
	return nil
}
