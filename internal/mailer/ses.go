package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/pkg/config"
)

// SESAPI is the slice of the SES client the sender uses, kept as an interface
// so tests can substitute a mock.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESDigestSender delivers daily notification digests through Amazon SES.
type SESDigestSender struct {
	client SESAPI
	from   string
}

func NewSESDigestSender(ctx context.Context, cfg config.MailConfig) (*SESDigestSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESDigestSender{
		client: ses.NewFromConfig(awsCfg),
		from:   cfg.FromEmail,
	}, nil
}

// NewSESDigestSenderWithClient constructs a sender around an existing client,
// used by tests.
func NewSESDigestSenderWithClient(client SESAPI, from string) *SESDigestSender {
	return &SESDigestSender{client: client, from: from}
}

// SendDigest sends one plain-text email summarizing the recipient's
// notifications for the day.
func (s *SESDigestSender) SendDigest(ctx context.Context, recipientEmail string, notifications []model.Notification) error {
	subject := fmt.Sprintf("Your daily reminders (%d)", len(notifications))

	var body strings.Builder
	body.WriteString("You have the following reminders today:\n\n")
	for _, n := range notifications {
		body.WriteString("- " + n.Title)
		if n.DueDate != nil {
			body.WriteString(" (due " + n.DueDate.Format("2006-01-02") + ")")
		}
		body.WriteString("\n")
		if n.Message != "" {
			body.WriteString("  " + n.Message + "\n")
		}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{recipientEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body.String())},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send digest to %s: %w", recipientEmail, err)
	}
	return nil
}
