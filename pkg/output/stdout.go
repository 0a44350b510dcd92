package output

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/tphakala/voicedetect/internal/classifier"
	"github.com/tphakala/voicedetect/internal/tuning"
)

// FileResult is the JSON form of a single-file classification
type FileResult struct {
	File                 string             `json:"file"`
	Language             string             `json:"language"`
	Classification       string             `json:"classification"`
	ConfidenceScore      float64            `json:"confidenceScore"`
	Probabilities        map[string]float64 `json:"probabilities"`
	AudioDurationSeconds float64            `json:"audioDurationSeconds"`
	ProcessingMs         float64            `json:"processingMs"`
	Explanation          string             `json:"explanation"`
	Features             map[string]float64 `json:"features,omitempty"`
}

// NewFileResult flattens a classification outcome
func NewFileResult(file string, out *classifier.Outcome) FileResult {
	res := FileResult{
		File:                 file,
		Language:             string(out.Language),
		Classification:       string(out.Result.Label),
		ConfidenceScore:      out.Result.Confidence,
		Probabilities:        out.Result.Probabilities,
		AudioDurationSeconds: out.DurationSeconds,
		ProcessingMs:         out.ProcessingMs,
		Explanation:          out.Result.Explanation,
	}
	if out.Result.Features != nil {
		res.Features = out.Result.Features.Map()
	}
	return res
}

func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

// PrintFileResult writes a classification as two tables: the verdict and,
// when available, the feature vector
func PrintFileResult(w io.Writer, r FileResult) {
	rows := [][]string{
		{"File", r.File},
		{"Language", r.Language},
		{"Classification", r.Classification},
		{"Confidence", f4(r.ConfidenceScore)},
		{"P(ai)", f4(r.Probabilities["ai"])},
		{"P(human)", f4(r.Probabilities["human"])},
		{"Duration (s)", strconv.FormatFloat(r.AudioDurationSeconds, 'f', 2, 64)},
		{"Processing (ms)", strconv.FormatFloat(r.ProcessingMs, 'f', 1, 64)},
		{"Explanation", r.Explanation},
	}
	fmt.Fprintln(w, RenderTable([]string{"Field", "Value"}, rows, nil))

	if len(r.Features) == 0 {
		return
	}
	names := make([]string, 0, len(r.Features))
	for name := range r.Features {
		names = append(names, name)
	}
	slices.Sort(names)

	frows := make([][]string, 0, len(names))
	for _, name := range names {
		frows = append(frows, []string{name, f4(r.Features[name])})
	}
	fmt.Fprintln(w, RenderTable([]string{"Feature", "Value"}, frows, []Alignment{AlignLeft, AlignRight}))
}

// PrintTuningReport writes per-sample results, accuracy and feature statistics
func PrintTuningReport(w io.Writer, report *tuning.Report) {
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		status := "?"
		switch {
		case r.Failed():
			status = "error"
		case r.Correct != nil && *r.Correct:
			status = "ok"
		case r.Correct != nil:
			status = "miss"
		}
		detail := string(r.Classification)
		confidence := f4(r.ConfidenceScore)
		if r.Failed() {
			detail = r.Error
			confidence = ""
		}
		rows = append(rows, []string{status, r.File, string(r.Language), string(r.TrueLabel), detail, confidence})
	}
	fmt.Fprintln(w, RenderTable(
		[]string{"Status", "File", "Language", "Expected", "Classification", "Confidence"},
		rows,
		[]Alignment{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	))

	if m := report.Metrics; m != nil {
		mrows := [][]string{
			{"Accuracy", pct(m.Accuracy)},
			{"Precision", pct(m.Precision)},
			{"Recall", pct(m.Recall)},
			{"F1 score", pct(m.F1)},
			{"True positives (AI as AI)", strconv.Itoa(m.TruePositives)},
			{"True negatives (human as human)", strconv.Itoa(m.TrueNegatives)},
			{"False positives (human as AI)", strconv.Itoa(m.FalsePositives)},
			{"False negatives (AI as human)", strconv.Itoa(m.FalseNegatives)},
			{"Average confidence", f4(report.AverageConfidence)},
		}
		fmt.Fprintln(w, RenderTable([]string{"Metric", "Value"}, mrows, []Alignment{AlignLeft, AlignRight}))
	} else {
		fmt.Fprintln(w, "No labelled samples; accuracy not computed.")
	}

	if report.AnalysisError != "" {
		fmt.Fprintf(w, "Feature analysis skipped: %s\n", report.AnalysisError)
		return
	}
	frows := make([][]string, 0, len(report.Features))
	for _, fs := range report.Features {
		direction := "human < t < AI"
		if fs.AIBelow {
			direction = "AI < t < human"
		}
		frows = append(frows, []string{
			fs.Name,
			f4(fs.AIMean) + " ± " + f4(fs.AIStd),
			f4(fs.HumanMean) + " ± " + f4(fs.HumanStd),
			f4(fs.Suggested),
			direction,
		})
	}
	fmt.Fprintln(w, RenderTable(
		[]string{"Feature", "AI", "Human", "Suggested", "Order"},
		frows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft},
	))
}
