package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/voicedetect/cmd/encode"
	"github.com/tphakala/voicedetect/cmd/file"
	"github.com/tphakala/voicedetect/cmd/serve"
	"github.com/tphakala/voicedetect/cmd/tune"
	"github.com/tphakala/voicedetect/internal/app"
	"github.com/tphakala/voicedetect/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "voicedetect",
		Short:         "AI-generated speech detection",
		Long:          "Classify speech recordings in Tamil, English, Hindi, Malayalam and Telugu as AI-generated or human.",
		Version:       ctx.Build.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(ctx.Build.String() + "\n")

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err)
	}

	serveCmd := serve.Command(ctx)
	fileCmd := file.Command(ctx)
	tuneCmd := tune.Command(ctx)
	encodeCmd := encode.Command()

	rootCmd.AddCommand(serveCmd, fileCmd, tuneCmd, encodeCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// encode only reads a file and needs no configuration
		if cmd.Name() == encodeCmd.Name() {
			return nil
		}
		if err := ctx.Initialize(cmd.Context(), configFile); err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return ctx.Close()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
// Flags shared by several sub-commands live here so each viper key is bound
// to exactly one flag.
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Config file (default: config.yaml in . or $HOME/.config/voicedetect)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("log-level", conf.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	flags.String("detector", conf.DefaultDetectorMode, "Detector implementation: heuristic or neural")
	flags.String("thresholds", "", "YAML file overriding the scoring thresholds")
	flags.String("model", conf.DefaultModelPath, "Neural model weights (JSON)")
	flags.Int("max-concurrent", 0, "Maximum concurrent detections (0 uses all CPUs)")

	bindings := map[string]string{
		"debug":                   "debug",
		"log.level":               "log-level",
		"detector.mode":           "detector",
		"detector.thresholdspath": "thresholds",
		"detector.modelpath":      "model",
		"detector.maxconcurrent":  "max-concurrent",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
