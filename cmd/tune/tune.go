package tune

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicedetect/internal/app"
	"github.com/tphakala/voicedetect/internal/cpuspec"
	"github.com/tphakala/voicedetect/internal/scoring"
	"github.com/tphakala/voicedetect/internal/tuning"
	"github.com/tphakala/voicedetect/pkg/output"
	"github.com/tphakala/voicedetect/pkg/spinner"
)

// DefaultSamplesDir is read when no directory argument is given
const DefaultSamplesDir = "samples"

type options struct {
	label           string
	workers         int
	output          string
	writeThresholds string
}

// Command creates the tune command that measures detector accuracy on a
// directory of samples and suggests thresholds.
func Command(ctx *app.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tune [samples-dir]",
		Short: "Evaluate the detector on sample recordings",
		Long: `Classify every MP3, WAV and FLAC file in a directory and report accuracy.
Labels and languages are read from file names: "ai", "generated" or "synthetic"
mark AI samples, "human" or "real" mark human samples, and a language name such
as "tamil" selects the language (English otherwise).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := DefaultSamplesDir
			if len(args) == 1 {
				dir = args[0]
			}
			return run(cmd, ctx, opts, dir)
		},
	}

	cmd.Flags().StringVar(&opts.label, "label", "", "Label applied to every sample: AI_GENERATED or HUMAN")
	cmd.Flags().IntVar(&opts.workers, "workers", cpuspec.GetCPUSpec().GetOptimalThreadCount(), "Samples classified in parallel")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the full report as JSON to this path")
	cmd.Flags().StringVar(&opts.writeThresholds, "write-thresholds", "", "Write suggested thresholds as YAML to this path")

	return cmd
}

func run(cmd *cobra.Command, ctx *app.Context, opts *options, dir string) error {
	out := cmd.OutOrStdout()

	label, err := tuning.ParseLabel(opts.label)
	if err != nil {
		return err
	}

	samples, err := tuning.Discover(dir, label)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintf(out, "No audio files found in %s.\n", dir)
		fmt.Fprintln(out, "Add MP3, WAV or FLAC files named like ai_tamil_01.mp3 or human_english_02.wav.")
		return nil
	}

	p, err := app.NewPipeline(ctx.Settings, nil)
	if err != nil {
		return err
	}

	progress := spinner.NewSpinner(cmd.ErrOrStderr(), "classified")
	tuner := tuning.New(p.Classifier,
		tuning.WithWorkers(opts.workers),
		tuning.WithProgress(progress.Update))
	report, err := tuner.Run(cmd.Context(), samples)
	progress.Cleanup()
	if err != nil {
		return err
	}

	output.PrintTuningReport(out, report)

	if opts.output != "" {
		if err := report.WriteJSON(opts.output); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", opts.output)
	}

	if opts.writeThresholds != "" {
		if report.Features == nil {
			return fmt.Errorf("cannot suggest thresholds: %s", report.AnalysisError)
		}
		suggested, err := tuning.SuggestThresholds(report.Features, p.Thresholds.Load())
		if err != nil {
			return err
		}
		if err := scoring.SaveThresholdsFile(opts.writeThresholds, suggested); err != nil {
			return err
		}
		fmt.Fprintf(out, "Suggested thresholds written to %s\n", opts.writeThresholds)
	}
	return nil
}
