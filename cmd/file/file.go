package file

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicedetect/internal/app"
	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
	"github.com/tphakala/voicedetect/pkg/output"
)

type options struct {
	language string
	json     bool
}

// Command creates the file command for classifying a single audio file.
func Command(ctx *app.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "file [input]",
		Short: "Classify an audio file",
		Long:  "Classify a single MP3, WAV or FLAC recording as AI-generated or human.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", string(language.English), "Spoken language of the recording")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

func run(cmd *cobra.Command, ctx *app.Context, opts *options, path string) error {
	lang, err := language.Parse(opts.language)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is given by the user
	if err != nil {
		return errors.New(err).
			Component("cli").
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}

	p, err := app.NewPipeline(ctx.Settings, nil)
	if err != nil {
		return err
	}

	outcome, err := p.Classifier.Classify(cmd.Context(), data, filepath.Base(path), lang)
	if err != nil {
		return err
	}

	result := output.NewFileResult(path, outcome)
	if opts.json {
		return output.WriteJSON(cmd.OutOrStdout(), result)
	}
	output.PrintFileResult(cmd.OutOrStdout(), result)
	return nil
}
