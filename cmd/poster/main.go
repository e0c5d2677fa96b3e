// Command poster serves the autoposter API locally and runs one-off
// previews and posts from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/lora-autoposter/internal/boot"
	"github.com/fpang/lora-autoposter/internal/logging"
)

var (
	useSSMFlag bool
	app        *boot.App
)

var rootCmd = &cobra.Command{
	Use:   "poster",
	Short: "Generate LoRA lifestyle photos and post them to Instagram",
	Long: `Poster builds a random lifestyle scene, renders it with the trained LoRA
on fal.ai, writes a caption, and publishes through the Composio Instagram
gateway.

Examples:
  poster serve --addr :8080 --schedule "0 0 9 * * *"
  poster preview
  poster publish --image-url https://v3b.fal.media/files/... --caption "Monday."
  poster cycle --preset Gym`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init()
		started := time.Now()
		var err error
		app, err = boot.Load(cmd.Context(), boot.Options{UseSSM: useSSMFlag})
		if err != nil {
			return err
		}
		app.LogStartup("poster", started)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useSSMFlag, "ssm", false, "Fill missing secrets from SSM Parameter Store")
	rootCmd.AddCommand(serveCmd, previewCmd, publishCmd, cycleCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
