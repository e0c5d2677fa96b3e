package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

const defaultSSMPrefix = "/lora-autoposter/prod"

// ParameterGetter is the SSM call used here. *ssm.Client satisfies it.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// secretParams maps SSM parameter names (under the prefix) to the fields
// they fill.
func (c *Config) secretParams() []struct {
	name   string
	target *string
} {
	return []struct {
		name   string
		target *string
	}{
		{"fal-api-key", &c.FalAPIKey},
		{"composio-api-key", &c.ComposioAPIKey},
		{"composio-entity-id", &c.ComposioEntityID},
		{"composio-connected-account-id", &c.ComposioConnectedAccountID},
		{"instagram-ig-user-id", &c.InstagramUserID},
		{"cron-secret", &c.CronSecret},
		{"stack-secret-server-key", &c.StackSecretServerKey},
		{"gemini-api-key", &c.GeminiAPIKey},
	}
}

// LoadSecretsFromSSM fills every empty secret from SSM under c.SSMPrefix.
// Values already set in the environment win. Missing parameters are logged
// and left empty; request-time checks report them. It returns the paths
// that were loaded.
func (c *Config) LoadSecretsFromSSM(ctx context.Context, client ParameterGetter) []string {
	var loaded []string
	for _, p := range c.secretParams() {
		if *p.target != "" {
			continue
		}
		path := c.SSMPrefix + "/" + p.name

		ssmStart := time.Now()
		result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(path),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			log.Debug().Err(err).Str("param", path).Msg("SSM parameter not loaded")
			continue
		}
		if result.Parameter == nil || result.Parameter.Value == nil {
			continue
		}
		*p.target = *result.Parameter.Value
		loaded = append(loaded, path)
		log.Debug().Str("param", path).Dur("elapsed", time.Since(ssmStart)).Msg("Secret loaded from SSM")
	}
	return loaded
}
