package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterLister is the subset of the SSM client used to read parameters.
type ParameterLister interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadFromSSM overlays the parameters stored under SSM_PARAMETER_PATH onto cfg.
// A parameter named /dev-cockpit/prod/GITHUB_TOKEN becomes cfg["GITHUB_TOKEN"].
// Values already present in the environment win over SSM values.
func LoadFromSSM(ctx context.Context, cfg map[string]string) error {
	parameterPath := GetString(cfg, "SSM_PARAMETER_PATH", "")
	if parameterPath == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(GetString(cfg, "AWS_REGION", "ap-northeast-1")))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	return overlayParameters(ctx, ssm.NewFromConfig(awsCfg), parameterPath, cfg)
}

func overlayParameters(ctx context.Context, client ParameterLister, parameterPath string, cfg map[string]string) error {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to read SSM parameters under %s: %w", parameterPath, err)
		}

		for _, parameter := range page.Parameters {
			key := strings.ToUpper(path.Base(aws.ToString(parameter.Name)))
			if existing, ok := cfg[key]; ok && existing != "" {
				continue
			}
			cfg[key] = aws.ToString(parameter.Value)
			loaded++
		}
	}

	log.Info().Str("path", parameterPath).Int("parameters", loaded).Msg("Loaded configuration from SSM")
	return nil
}
