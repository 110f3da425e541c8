package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/atvirokodosprendimai/tenantapi/internal/core/domain"
)

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWS reads secrets from AWS Secrets Manager on every call.
type AWS struct {
	client secretsManagerAPI
}

// NewAWS builds a client from the default credential chain. region may be
// empty to use the chain's region.
func NewAWS(ctx context.Context, region string) (*AWS, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &AWS{client: secretsmanager.NewFromConfig(awsCfg)}, nil
}

func (p *AWS) Secret(ctx context.Context, ref string) (string, error) {
	name, field := splitRef(ref)
	if name == "" {
		return "", domain.NewValidationError("secret name is required")
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", domain.NotFoundError("secret %s", name)
		}
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}

	var raw string
	switch {
	case out.SecretString != nil:
		raw = *out.SecretString
	case out.SecretBinary != nil:
		raw = string(out.SecretBinary)
	}
	if raw == "" {
		return "", domain.NotFoundError("secret %s has no value", name)
	}
	if field == "" {
		return raw, nil
	}
	return extractField(raw, name, field)
}
