package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"zonuko/internal/logger"
	"zonuko/internal/models"
)

// Milestone describes what a child just achieved.
type Milestone struct {
	StageAdvanced bool
	NewStage      models.Stage
	NewBadges     []models.Badge
}

func (m Milestone) Empty() bool {
	return !m.StageAdvanced && len(m.NewBadges) == 0
}

type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends parent milestone emails via Amazon SES
type EmailService struct {
	client     sesSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool, log *logger.Logger) (*EmailService, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "EmailService")

	if fromEmail == "" {
		log.Info("Email service disabled: EMAIL_FROM not configured")
		return &EmailService{enabled: false, debug: debug, log: log}, nil
	}

	if debug {
		log.Debug("Initializing email service with AWS SES", "region", awsRegion, "from", fromEmail, "base_url", appBaseURL)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug, log), nil
}

func newEmailService(client sesSender, fromEmail, fromName, appBaseURL string, debug bool, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendMilestoneEmail tells a parent about a stage advance or new badges
func (s *EmailService) SendMilestoneEmail(ctx context.Context, parent *models.Parent, child *models.Child, m Milestone) error {
	if parent == nil || child == nil || m.Empty() {
		return nil
	}
	if !s.enabled {
		s.log.Info("Skipping email send (service disabled)", "kind", "milestone", "child_id", child.ID)
		return nil
	}

	var lines []string
	if m.StageAdvanced {
		lines = append(lines, fmt.Sprintf("%s reached the %s stage: \"%s\".",
			child.Username, m.NewStage.Label(), m.NewStage.Description()))
	}
	for _, b := range m.NewBadges {
		lines = append(lines, fmt.Sprintf("%s earned the %s badge.", child.Username, b.Label()))
	}

	subject := fmt.Sprintf("%s has a new milestone on Zonuko", child.Username)
	progressLink := strings.TrimSuffix(s.appBaseURL, "/") + "/parent/children"

	var items strings.Builder
	for _, l := range lines {
		items.WriteString("<li>" + html.EscapeString(l) + "</li>")
	}
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>Great news from the workshop:</p>
	<ul>%s</ul>
	<p><a href="%s">See their progress</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from Zonuko. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(parent.DisplayName), items.String(), html.EscapeString(progressLink))

	textBody := fmt.Sprintf(`Hi %s,

Great news from the workshop:

- %s

See their progress: %s

---
This is an automated email from Zonuko. Please do not reply.
`, parent.DisplayName, strings.Join(lines, "\n- "), progressLink)

	return s.sendEmail(ctx, parent.Email, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
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

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		s.log.Debug("SES SendEmail succeeded", "message_id", *result.MessageId)
	}
	s.log.Info("Email sent", "to", toEmail, "subject", subject)
	return nil
}
