package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/ignite/newsletter-engine/internal/config"
	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/pkg/logger"
)

// SESMailer sends mail via AWS SES using the SDK v2. Messages without
// attachments go out as Simple content; messages with attachments are
// assembled into raw MIME because the Simple API has no attachment support.
type SESMailer struct {
	client *sesv2.Client
}

// NewSESMailer creates an SES mailer from static credentials.
func NewSESMailer(ctx context.Context, cfg appconfig.SESConfig) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESMailer{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// Send delivers a single message. On failure it returns a *transport.Error
// so callers can tell delivery failures apart from configuration defects.
func (m *SESMailer) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	content, err := m.buildContent(msg)
	if err != nil {
		return nil, &Error{Recipient: msg.To, Err: err}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content:          content,
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return nil, &Error{Recipient: msg.To, Err: err}
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}

	logger.Debug("ses delivery accepted", "recipient", msg.To, "message_id", messageID)

	return &domain.SendResult{MessageID: messageID, SentAt: time.Now()}, nil
}

// buildContent chooses Simple vs Raw content. Simple handles the
// plaintext/HTML alternative pairing itself; Raw is needed only when the
// campaign carries attachments.
func (m *SESMailer) buildContent(msg *domain.EmailMessage) (*types.EmailContent, error) {
	if len(msg.Attachments) > 0 {
		raw, err := buildRawMessage(msg)
		if err != nil {
			return nil, err
		}
		return &types.EmailContent{Raw: &types.RawMessage{Data: raw}}, nil
	}

	body := &types.Body{}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}

	return &types.EmailContent{
		Simple: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}, nil
}
