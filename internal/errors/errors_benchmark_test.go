package errors

import (
	"fmt"
	"testing"
)

func BenchmarkErrorCreationNoTelemetry(b *testing.B) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()

	b.ReportAllocs()

	for b.Loop() {
		_ = New(fmt.Errorf("decode failed")).
			Component("audio").
			Category(CategoryAudioDecode).
			Build()
	}
}

func BenchmarkErrorCreationWithHook(b *testing.B) {
	SetTelemetryReporter(nil)
	ClearErrorHooks()
	AddErrorHook(func(*EnhancedError) {})
	b.Cleanup(ClearErrorHooks)

	b.ReportAllocs()

	for b.Loop() {
		_ = New(fmt.Errorf("decode failed")).
			Category(CategoryAudioDecode).
			Context("format", "flac").
			Build()
	}
}
