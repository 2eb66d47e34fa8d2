package email

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// SESOptions configures outbound mail through Amazon SES.
type SESOptions struct {
	Region           string
	FromAddress      string
	FromName         string
	ConfigurationSet string
	// Static credentials; left empty the default AWS chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient delivers booking mail with the SESv2 API.
type SESClient struct {
	api    sesAPI
	from   string
	cfgSet string
}

var _ Sender = (*SESClient)(nil)

func NewSESClient(ctx context.Context, opts SESOptions) (*SESClient, error) {
	if opts.Region == "" {
		return nil, fmt.Errorf("ses region is required")
	}
	from, err := formatFrom(opts.FromAddress, opts.FromName)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{api: sesv2.NewFromConfig(awsCfg), from: from, cfgSet: opts.ConfigurationSet}, nil
}

func formatFrom(address, name string) (string, error) {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return "", fmt.Errorf("invalid sender address %q: %w", address, err)
	}
	if name != "" {
		parsed.Name = name
	}
	return parsed.String(), nil
}

func (c *SESClient) Send(ctx context.Context, to string, msg Message) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("ses client is not initialized")
	}
	if to == "" {
		return fmt.Errorf("recipient is required")
	}
	if _, err := c.api.SendEmail(ctx, c.sendInput(to, msg)); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("recipient", to).
			Str("kind", msg.Kind).
			Msg("SES rejected booking email")
		return fmt.Errorf("send %s email: %w", msg.kind(), err)
	}
	return nil
}

func (c *SESClient) sendInput(to string, msg Message) *sesv2.SendEmailInput {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{{Name: aws.String("kind"), Value: aws.String(msg.kind())}},
	}
	if c.cfgSet != "" {
		input.ConfigurationSetName = aws.String(c.cfgSet)
	}
	return input
}
