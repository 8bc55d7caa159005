// Package notify sends the emails the offline sync uses to report credential and sync
// failures to the spreadsheet owner.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Title is the application name used in email subjects and as the sender name.
const Title = "DBM Report - Google Sheets Addon"

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// Mailer sends messages through an SMTP server.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	logger *zap.Logger
}

func NewMailer(host string, port int, username, password, from string, logger *zap.Logger) *Mailer {
	return &Mailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		logger:   logger.Named("mailer"),
	}
}

func (m *Mailer) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.From, Title))
	msg.SetHeader("To", message.To)
	msg.SetHeader("Subject", message.Subject)
	msg.SetBody("text/html", message.HTML)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		m.logger.Error("error sending email", zap.String("to", message.To), zap.String("subject", message.Subject), zap.Error(err))
		return fmt.Errorf("error sending email to %v (%w)", message.To, err)
	}

	m.logger.Info("sent email", zap.String("to", message.To), zap.String("subject", message.Subject))

	return nil
}

// Log is the Notifier used when no SMTP server is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{
		logger: logger.Named("notify"),
	}
}

func (l *Log) Send(ctx context.Context, message Message) error {
	l.logger.Warn("email not sent - SMTP not configured",
		zap.String("to", message.To),
		zap.String("subject", message.Subject),
		zap.String("body", message.HTML))

	return nil
}
