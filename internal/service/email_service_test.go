package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonuko/internal/logger"
	"zonuko/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabledWithoutSender(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "http://localhost", false, nil)
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())

	err = svc.SendMilestoneEmail(context.Background(),
		&models.Parent{Email: "p@example.com"},
		&models.Child{ID: 1, Username: "ada"},
		Milestone{StageAdvanced: true, NewStage: models.StageBuilder})
	assert.NoError(t, err)
}

func TestSendMilestoneEmail(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "hello@zonuko.test", "Zonuko", "https://zonuko.test/", true, logger.Nop())

	parent := &models.Parent{Email: "pat@example.com", DisplayName: "Pat <3"}
	child := &models.Child{ID: 7, Username: "ada"}

	err := svc.SendMilestoneEmail(context.Background(), parent, child, Milestone{
		StageAdvanced: true,
		NewStage:      models.StageBuilder,
		NewBadges:     []models.Badge{models.BadgeFirstThoughts},
	})
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "Zonuko <hello@zonuko.test>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"pat@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "ada has a new milestone on Zonuko", aws.ToString(in.Content.Simple.Subject.Data))

	htmlBody := aws.ToString(in.Content.Simple.Body.Html.Data)
	assert.Contains(t, htmlBody, "Pat &lt;3")
	assert.Contains(t, htmlBody, "https://zonuko.test/parent/children")

	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	assert.Contains(t, text, `ada reached the Builder stage: "I can strengthen designs".`)
	assert.Contains(t, text, "ada earned the First Thoughts badge.")
}

func TestSendMilestoneEmailSkipsEmptyMilestone(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "hello@zonuko.test", "", "https://zonuko.test", false, logger.Nop())

	err := svc.SendMilestoneEmail(context.Background(), &models.Parent{Email: "pat@example.com"}, &models.Child{ID: 7}, Milestone{})
	require.NoError(t, err)
	assert.Empty(t, ses.inputs)
}

func TestSendMilestoneEmailWrapsSESError(t *testing.T) {
	boom := errors.New("throttled")
	svc := newEmailService(&fakeSES{err: boom}, "hello@zonuko.test", "", "https://zonuko.test", false, logger.Nop())

	err := svc.SendMilestoneEmail(context.Background(), &models.Parent{Email: "pat@example.com"}, &models.Child{ID: 7, Username: "ada"},
		Milestone{NewBadges: []models.Badge{models.BadgeDeepThinker}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
