package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/SundayYogurt/school_service/pkg/logger"
	"go.uber.org/zap"
)

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

type smtpSender func(ctx context.Context, cfg SMTPSettings, to string, msg []byte) error

// MailService delivers HTML mail over SMTP (STARTTLS + PLAIN auth when offered).
type MailService struct {
	cfg  SMTPSettings
	send smtpSender
	log  *zap.Logger
}

func NewMailService(cfg SMTPSettings) *MailService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MailService{
		cfg:  cfg,
		send: sendSMTP,
		log:  logger.WithModule("mail"),
	}
}

func (s *MailService) SendMail(ctx context.Context, to, subject, html string) error {
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("smtp: invalid recipient %q: %w", to, err)
	}
	if s.cfg.From == "" {
		return errors.New("smtp: sender address is required")
	}

	// RCPT takes the bare address; the header keeps any display name
	msg := s.buildMessage(rcpt, subject, html)

	s.log.Debug("sending mail", zap.String("to", rcpt.Address), zap.String("host", s.cfg.Host))
	if err := s.send(ctx, s.cfg, rcpt.Address, msg); err != nil {
		return err
	}
	s.log.Info("mail sent", zap.String("to", rcpt.Address), zap.String("subject", subject))
	return nil
}

func (s *MailService) buildMessage(to *mail.Address, subject, html string) []byte {
	from := (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}).String()

	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		html,
	}, "\r\n"))
}

func sendSMTP(ctx context.Context, cfg SMTPSettings, to string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	// bound the whole conversation
	_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp: new client: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
	}
	if cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: close body: %w", err)
	}
	return c.Quit()
}
