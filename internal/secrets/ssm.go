package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pohualizcalli/academy-admin/internal/domain"
)

// ssmAPI is the slice of the SSM client the loader needs.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMLoader reads the shared callback secret from an encrypted SSM parameter.
type SSMLoader struct {
	api       ssmAPI
	paramName string
}

func NewSSMLoader(awsCfg aws.Config, paramName, region string) (*SSMLoader, error) {
	if strings.TrimSpace(paramName) == "" {
		return nil, fmt.Errorf("%w: secret parameter name is required", domain.ErrSecretUnavailable)
	}

	client := ssm.NewFromConfig(awsCfg, func(o *ssm.Options) {
		if region != "" {
			o.Region = region
		}
	})

	return &SSMLoader{api: client, paramName: paramName}, nil
}

func (l *SSMLoader) Load(ctx context.Context) (string, error) {
	if l == nil || l.api == nil {
		return "", fmt.Errorf("%w: loader is not initialized", domain.ErrSecretUnavailable)
	}

	out, err := l.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(l.paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to read parameter %q: %v", domain.ErrSecretUnavailable, l.paramName, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: parameter %q has no value", domain.ErrSecretUnavailable, l.paramName)
	}

	value := strings.TrimSpace(*out.Parameter.Value)
	if value == "" {
		return "", fmt.Errorf("%w: parameter %q returned empty value", domain.ErrSecretUnavailable, l.paramName)
	}

	return value, nil
}
