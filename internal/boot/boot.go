// Package boot builds the runtime graph shared by the CLI server and the
// Lambda entry points: configuration, AWS clients, provider clients, the
// poster service, and the HTTP server.
package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/auth"
	"github.com/fpang/lora-autoposter/internal/caption"
	"github.com/fpang/lora-autoposter/internal/composio"
	"github.com/fpang/lora-autoposter/internal/config"
	"github.com/fpang/lora-autoposter/internal/fal"
	"github.com/fpang/lora-autoposter/internal/imagecheck"
	"github.com/fpang/lora-autoposter/internal/instagram"
	"github.com/fpang/lora-autoposter/internal/logging"
	"github.com/fpang/lora-autoposter/internal/mirror"
	"github.com/fpang/lora-autoposter/internal/poster"
	"github.com/fpang/lora-autoposter/internal/prompt"
	"github.com/fpang/lora-autoposter/internal/server"
)

// CommitHash is set at build time with -ldflags "-X .../internal/boot.CommitHash=...".
var CommitHash string

// Options select which optional sources Load consults.
type Options struct {
	// UseSSM fills empty secrets from SSM Parameter Store.
	UseSSM bool
}

// App is the wired runtime.
type App struct {
	Config    *config.Config
	Service   *poster.Service
	Server    *server.Server
	SSMParams []string

	awsConfig *aws.Config
}

// Load reads configuration and wires every component.
func Load(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg}

	if opts.UseSSM {
		awsCfg, err := app.aws(ctx)
		if err != nil {
			return nil, err
		}
		app.SSMParams = cfg.LoadSecretsFromSSM(ctx, ssm.NewFromConfig(awsCfg))
	}

	publisher, err := app.publisher(ctx)
	if err != nil {
		return nil, err
	}
	writer, err := app.captionWriter(ctx)
	if err != nil {
		return nil, err
	}

	scenes := prompt.NewBuilder(prompt.WithTattoo(prompt.TattooStyleByName(cfg.TattooStyle), cfg.TattooChance))
	app.Service = poster.NewService(poster.Settings{
		FalAPIKey:          cfg.FalAPIKey,
		LoRAURL:            cfg.LoRAURL,
		InstagramUserID:    cfg.InstagramUserID,
		ConnectedAccountID: cfg.ComposioConnectedAccountID,
		PreviewTimeout:     cfg.PreviewTimeout,
	},
		fal.NewClient(cfg.FalQueueURL, fal.InteractiveCadence),
		fal.NewClient(cfg.FalQueueURL, fal.LegacyCadence),
		publisher, scenes, writer,
	)

	verifier := auth.NewStackVerifier(cfg.StackAPIURL, cfg.StackProjectID, cfg.StackSecretServerKey)
	app.Server = server.New(cfg, app.Service, verifier)
	return app, nil
}

// aws loads the default AWS config once.
func (a *App) aws(ctx context.Context) (aws.Config, error) {
	if a.awsConfig != nil {
		return *a.awsConfig, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	a.awsConfig = &cfg
	return cfg, nil
}

func (a *App) publisher(ctx context.Context) (*instagram.Publisher, error) {
	cfg := a.Config
	gateway := composio.NewClient(cfg.ComposioAPIKey, cfg.ComposioEntityID, cfg.ComposioBaseURL)
	opts := []instagram.Option{instagram.WithCandidateHosts(fal.CDNHosts)}

	checker := imagecheck.NewChecker()
	if cfg.ImagePreflight {
		opts = append(opts, instagram.WithImageChecker(checker))
	}
	if cfg.MirrorBucket != "" {
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, instagram.WithMirror(mirror.New(s3.NewFromConfig(awsCfg), cfg.MirrorBucket, checker)))
	}
	return instagram.NewPublisher(gateway, opts...), nil
}

func (a *App) captionWriter(ctx context.Context) (caption.Writer, error) {
	cfg := a.Config
	table := caption.NewTableWriter(nil, caption.TonesByName(cfg.CaptionTones)...)
	if !cfg.UseGeminiCaptions() {
		return table, nil
	}
	client, err := caption.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	return caption.NewGeminiWriter(client, cfg.GeminiModel, table), nil
}

// LogStartup emits the startup summary for the named binary.
func (a *App) LogStartup(name string, started time.Time) {
	cfg := a.Config
	sl := logging.NewStartupLogger(name).
		CommitHash(CommitHash).
		Secret("falApiKey", cfg.FalAPIKey).
		Secret("composioApiKey", cfg.ComposioAPIKey).
		Secret("cronSecret", cfg.CronSecret).
		Secret("stackSecretServerKey", cfg.StackSecretServerKey).
		Secret("geminiApiKey", cfg.GeminiAPIKey).
		SSMParams(a.SSMParams).
		Feature("sessionAuth", cfg.SessionAuthConfigured()).
		Feature("geminiCaptions", cfg.UseGeminiCaptions()).
		Feature("imagePreflight", cfg.ImagePreflight).
		Feature("mirror", cfg.MirrorBucket != "").
		Feature("publishRateLimit", cfg.PublishRatePerHour > 0).
		Config("captionStrategy", cfg.CaptionStrategy).
		Config("tattooStyle", prompt.TattooStyleByName(cfg.TattooStyle).Name).
		Config("previewTimeout", cfg.PreviewTimeout.String()).
		Config("composioEntityId", cfg.ComposioEntityID).
		InitDuration(time.Since(started))
	if cfg.MirrorBucket != "" {
		sl.S3Bucket("mirror", cfg.MirrorBucket)
	}
	sl.Log()
}
