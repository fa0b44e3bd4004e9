package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"time"

	"github.com/ebotikaph/ebotika-api/internal/logging"
)

// Service delivers transactional mail over SMTP. All sends are best-effort
// from the caller's perspective: a failed delivery is logged and reported,
// but callers must never roll back committed state because of it. Every
// send is bounded by sendTimeout so a hung server cannot pin a goroutine.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	fromName     string
	sendTimeout  time.Duration
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromName string, sendTimeout time.Duration) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		fromName:     fromName,
		sendTimeout:  sendTimeout,
	}
}

// SendVerificationCode mails a registration verification code to an applicant.
// This method is designed to be called in a goroutine
func (s *Service) SendVerificationCode(ctx context.Context, toEmail, name, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Your e-Botika verification code"
	body, err := renderCodeTemplate(codeEmailData{
		Name:    name,
		Code:    code,
		Purpose: "verify your email address",
		Window:  "15 minutes",
	})
	if err != nil {
		logger.Error("failed to render verification email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, subject, body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendResetOTP mails a password-reset OTP to a resident.
// This method is designed to be called in a goroutine
func (s *Service) SendResetOTP(ctx context.Context, toEmail, name, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Your e-Botika password reset code"
	body, err := renderCodeTemplate(codeEmailData{
		Name:    name,
		Code:    code,
		Purpose: "reset your password",
		Window:  "5 minutes",
	})
	if err != nil {
		logger.Error("failed to render reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, toEmail, subject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// SendApprovalRequest notifies the assigned health worker about a new
// pending registration from one of their sub-areas.
// This method is designed to be called in a goroutine
func (s *Service) SendApprovalRequest(ctx context.Context, workerEmail, workerName, applicantName, subAreaName string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "New registration awaiting your review"
	body, err := renderApprovalTemplate(approvalEmailData{
		WorkerName:    workerName,
		ApplicantName: applicantName,
		SubAreaName:   subAreaName,
	})
	if err != nil {
		logger.Error("failed to render approval email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(ctx, workerEmail, subject, body); err != nil {
		logger.Error("failed to send approval request", "email", workerEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("approval request sent", "email", workerEmail, "sub_area", subAreaName)
	return nil
}

// sendEmail runs the SMTP conversation over a connection whose deadline is
// the earlier of the caller's context deadline and sendTimeout.
func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromName, s.fromEmail, to, subject, body,
	))

	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}

	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}
	defer conn.Close()

	// One deadline covers the greeting and every command after it
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("set connection deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, s.smtpHost)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.smtpHost}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.smtpUser != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	return client.Quit()
}

type codeEmailData struct {
	Name    string
	Code    string
	Purpose string
	Window  string
}

func renderCodeTemplate(data codeEmailData) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello {{.Name}},</h2>
    <p>Use the code below to {{.Purpose}}:</p>
    <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; background-color: #f0f4f0; padding: 16px; border-radius: 5px;">{{.Code}}</p>
    <p>The code expires in {{.Window}} and can be used only once.</p>
    <p>If you did not request this code, you can safely ignore this email.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #666;">e-Botika Barangay Health Services</p>
</body>
</html>
`

	t, err := template.New("code").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

type approvalEmailData struct {
	WorkerName    string
	ApplicantName string
	SubAreaName   string
}

func renderApprovalTemplate(data approvalEmailData) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello {{.WorkerName}},</h2>
    <p><strong>{{.ApplicantName}}</strong> from <strong>{{.SubAreaName}}</strong> has submitted a registration and is waiting for your review.</p>
    <p>Please log in to the e-Botika portal to approve or reject the application.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #666;">e-Botika Barangay Health Services</p>
</body>
</html>
`

	t, err := template.New("approval").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
