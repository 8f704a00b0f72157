package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// EmailService sends transactional email via Amazon SES. When no from address
// is configured the service is disabled and all sends become logged no-ops,
// which keeps local development free of AWS credentials.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logrus.Logger
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, log *logrus.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.WithFields(logrus.Fields{"from": fromEmail, "region": awsRegion}).Info("email service enabled")

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		log:        log,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWelcomeEmail greets a newly registered account.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	subject := "Welcome to FamilyPlan!"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h1>Welcome to FamilyPlan!</h1>
	<p>Hi %s,</p>
	<p>Your family account is ready. Here's what you can do next:</p>
	<ul>
		<li>Add the rest of your family to your account</li>
		<li>Set focus areas for what you'd like to work on together</li>
		<li>Tell us what resources you have at home</li>
		<li>Generate activity ideas tailored to your family</li>
	</ul>
	<p><a href="%s/login">Get started</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from FamilyPlan. Please do not reply.</p>
</body>
</html>
`, toName, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Your family account is ready. Here's what you can do next:
- Add the rest of your family to your account
- Set focus areas for what you'd like to work on together
- Tell us what resources you have at home
- Generate activity ideas tailored to your family

Get started: %s/login

---
This is an automated email from FamilyPlan. Please do not reply.
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendPasswordResetEmail sends a reset link built from the token.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", s.appBaseURL, resetToken)

	subject := "Reset Your FamilyPlan Password"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h1>Password Reset Request</h1>
	<p>Hi %s,</p>
	<p>We received a request to reset your FamilyPlan password.</p>
	<p><a href="%s">Reset your password</a></p>
	<p>Or copy and paste this link into your browser:</p>
	<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
	<p><strong>This link will expire in 1 hour.</strong></p>
	<p>If you didn't request a password reset, you can safely ignore this email.</p>
	<p style="font-size: 12px; color: #666;">This is an automated email from FamilyPlan. Please do not reply.</p>
</body>
</html>
`, toName, resetLink, resetLink)

	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset your FamilyPlan password.

Reset your password: %s

This link will expire in 1 hour.

If you didn't request a password reset, you can safely ignore this email.

---
This is an automated email from FamilyPlan. Please do not reply.
`, toName, resetLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendFamilyInviteEmail shares a family's invite code with someone who should
// join it.
func (s *EmailService) SendFamilyInviteEmail(ctx context.Context, toEmail, familyName, inviteCode string) error {
	joinLink := fmt.Sprintf("%s/register?code=%s", s.appBaseURL, inviteCode)

	subject := fmt.Sprintf("You're invited to join %s on FamilyPlan", familyName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h1>Join %s on FamilyPlan</h1>
	<p>You've been invited to join the %s family on FamilyPlan.</p>
	<p>Your invite code is:</p>
	<p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">%s</p>
	<p><a href="%s">Join now</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from FamilyPlan. Please do not reply.</p>
</body>
</html>
`, familyName, familyName, inviteCode, joinLink)

	textBody := fmt.Sprintf(`You've been invited to join the %s family on FamilyPlan.

Your invite code is: %s

Join now: %s

---
This is an automated email from FamilyPlan. Please do not reply.
`, familyName, inviteCode, joinLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if !s.enabled {
		s.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("skipping email send (service disabled)")
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("email sent")
	return nil
}
