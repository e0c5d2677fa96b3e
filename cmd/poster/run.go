package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fpang/lora-autoposter/internal/poster"
	"github.com/fpang/lora-autoposter/internal/prompt"
)

var (
	imageURLFlag string
	captionFlag  string
	presetFlag   string
	ideaFlag     string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate a random image and caption without publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Config.RequireFal(); err != nil {
			return err
		}
		preview, err := app.Service.Preview(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(preview)
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish an existing image URL with a caption",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Config.RequireComposio(); err != nil {
			return err
		}
		if !strings.HasPrefix(strings.TrimSpace(imageURLFlag), "http") {
			return errors.New("--image-url is required and must be a valid URL")
		}
		result, err := app.Service.PublishPreview(cmd.Context(), imageURLFlag, captionFlag)
		if err != nil {
			return err
		}
		if err := printJSON(poster.NewInstagramReport(result)); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("publish failed: %s", result.Error)
		}
		return nil
	},
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one full generate-and-publish cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Config.RequireFal(); err != nil {
			return err
		}
		if err := app.Config.RequireComposio(); err != nil {
			return err
		}

		var opts prompt.Options
		if presetFlag != "" {
			preset, ok := prompt.Preset(presetFlag)
			if !ok {
				return fmt.Errorf("unknown preset %q (want one of: %s)", presetFlag, strings.Join(prompt.PresetNames(), ", "))
			}
			opts = preset
		}
		if cmd.Flags().Changed("idea") {
			opts = opts.Apply(prompt.Overrides{PostIdea: &ideaFlag})
		}

		report, err := app.Service.RunCycle(cmd.Context(), poster.CycleInput{
			Trigger:  "cli",
			Options:  opts,
			Caption:  captionFlag,
			ImageURL: imageURLFlag,
		})
		if printErr := printJSON(report); printErr != nil {
			return printErr
		}
		if err != nil {
			return err
		}
		if !report.Success {
			return fmt.Errorf("cycle failed: %s", report.Error)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&imageURLFlag, "image-url", "", "Public image URL to publish")
	publishCmd.Flags().StringVar(&captionFlag, "caption", "", "Caption text")

	cycleCmd.Flags().StringVar(&presetFlag, "preset", "", "Scene preset name")
	cycleCmd.Flags().StringVar(&ideaFlag, "idea", "", "Post idea woven into the scene")
	cycleCmd.Flags().StringVar(&captionFlag, "caption", "", "Caption text (generated when empty)")
	cycleCmd.Flags().StringVar(&imageURLFlag, "image-url", "", "Publish this image instead of generating one")
}
