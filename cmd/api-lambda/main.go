// Package main is the API Gateway (HTTP API, payload v2) entry point. It
// serves the same routes as "poster serve".
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/lora-autoposter/internal/boot"
	"github.com/fpang/lora-autoposter/internal/logging"
)

var app *boot.App

func init() {
	logging.Init()
	started := time.Now()

	var err error
	app, err = boot.Load(context.Background(), boot.Options{UseSSM: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	app.LogStartup("api-lambda", started)
}

func main() {
	adapter := httpadapter.NewV2(app.Server.Handler())
	lambda.Start(adapter.ProxyWithContext)
}
