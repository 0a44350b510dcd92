package serve

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/voicedetect/internal/api"
	"github.com/tphakala/voicedetect/internal/app"
	"github.com/tphakala/voicedetect/internal/conf"
	"github.com/tphakala/voicedetect/internal/observability"
)

// Command creates the serve command that runs the HTTP API.
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection API server",
		Long:  "Start the HTTP API that classifies uploaded speech as AI-generated or human.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx)
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("host", conf.DefaultHost, "Listen address")
	cmd.Flags().Int("port", conf.DefaultPort, "Listen port")
	cmd.Flags().Bool("debug-routes", false, "Expose the /api/v1/_debug endpoints")

	bindings := map[string]string{
		"server.host":              "host",
		"server.port":              "port",
		"server.enabledebugroutes": "debug-routes",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func run(ctx *app.Context) error {
	settings := ctx.Settings

	m, err := observability.NewMetrics(settings.Detector.Mode)
	if err != nil {
		return err
	}
	m.CountErrors()

	p, err := app.NewPipeline(settings, m.Detector)
	if err != nil {
		return err
	}

	cfg := api.ConfigFromSettings(settings)
	cfg.Version = ctx.Build.VersionOr(api.DefaultVersion)

	opts := []api.ServerOption{
		api.WithClassifier(p.Classifier),
		api.WithMetrics(m),
	}
	if settings.Detector.ThresholdsPath != "" {
		opts = append(opts, api.WithReloader(p.ReloadThresholds))
	}

	server, err := api.New(cfg, opts...)
	if err != nil {
		return err
	}
	return server.StartWithGracefulShutdown()
}
