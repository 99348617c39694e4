package services

// EmailSender delivers a plain-text message to a single recipient.
type EmailSender interface {
	Send(to string, subject string, body string) error
}
