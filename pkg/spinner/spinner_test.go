package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerUpdate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSpinner(&buf, "samples")

	s.Update(1, 4)
	s.Update(2, 4)
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "\033[?25l"), "cursor hidden once")
	assert.Contains(t, out, "⣀⣀ samples 1/4")
	assert.Contains(t, out, "⣄⣀ samples 2/4")

	s.Cleanup()
	assert.True(t, strings.HasSuffix(buf.String(), "\033[?25h"))
}

func TestSpinnerCleanupWithoutUpdate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewSpinner(&buf, "x").Cleanup()
	assert.Empty(t, buf.String())
}

func TestSpinnerConcurrentUpdates(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSpinner(&buf, "n")

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(i, 32)
		}()
	}
	wg.Wait()
	s.Cleanup()

	assert.Equal(t, 32, strings.Count(buf.String(), "/32"))
}
