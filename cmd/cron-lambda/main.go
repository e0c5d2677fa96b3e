// Package main runs one generate-and-publish cycle per EventBridge
// scheduled event.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/boot"
	"github.com/fpang/lora-autoposter/internal/logging"
	"github.com/fpang/lora-autoposter/internal/poster"
)

// scheduledCycle matches poster.Service.RunCycle.
type scheduledCycle func(ctx context.Context, in poster.CycleInput) (*poster.CycleReport, error)

func newHandler(run scheduledCycle) func(context.Context, events.CloudWatchEvent) (*poster.CycleReport, error) {
	return func(ctx context.Context, event events.CloudWatchEvent) (*poster.CycleReport, error) {
		log.Info().
			Str("eventId", event.ID).
			Str("source", event.Source).
			Time("scheduledAt", event.Time).
			Msg("Scheduled cycle triggered")

		report, err := run(ctx, poster.CycleInput{Trigger: "schedule"})
		if err != nil {
			return report, err
		}
		if !report.Success {
			// Rejected posts count as failed invocations.
			return report, fmt.Errorf("cycle %s failed: %s", report.RunID, report.Error)
		}
		return report, nil
	}
}

func main() {
	logging.Init()
	started := time.Now()

	app, err := boot.Load(context.Background(), boot.Options{UseSSM: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	app.LogStartup("cron-lambda", started)

	if err = app.Config.RequireFal(); err != nil {
		log.Fatal().Err(err).Msg("Generation is not configured")
	}
	if err = app.Config.RequireComposio(); err != nil {
		log.Fatal().Err(err).Msg("Publishing is not configured")
	}
	lambda.Start(newHandler(app.Service.RunCycle))
}
