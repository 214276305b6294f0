package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/yishu-dev/yishu/pkg/models"
)

// ErrEmailDisabled is returned by the e-mail sink when no sender is configured.
var ErrEmailDisabled = errors.New("email export disabled: export.ses.from_email is not configured")

// SESClient is the subset of the SES v2 client used to send mail.
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// sesSink mails a biography through Amazon SES with both HTML and plain
// text bodies.
type sesSink struct {
	client    SESClient
	fromEmail string
	fromName  string
	enabled   bool
}

// NewSESSink creates the e-mail sink. With an empty from address the sink
// is created disabled and every export fails with ErrEmailDisabled.
func NewSESSink(ctx context.Context, cfg models.SESConfig) (ExportSink, error) {
	if cfg.FromEmail == "" {
		return &sesSink{enabled: false}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newSESSinkWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newSESSinkWithClient(client SESClient, cfg models.SESConfig) *sesSink {
	return &sesSink{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   cfg.FromEmail != "",
	}
}

func (s *sesSink) Format() string { return "email" }

// Export sends doc to the recipient address in target and returns the SES
// message id.
func (s *sesSink) Export(ctx context.Context, doc Document, target string) (string, error) {
	if !s.enabled {
		return "", ErrEmailDisabled
	}
	if target == "" {
		return "", errors.New("email export requires a recipient address")
	}

	htmlBody, err := renderHTML(doc)
	if err != nil {
		return "", err
	}
	textBody := renderText(doc)

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{target},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(doc.Title),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(string(htmlBody)),
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

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("sending email to %s: %w", target, err)
	}
	if out.MessageId != nil {
		return *out.MessageId, nil
	}
	return "sent to " + target, nil
}
