package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/voicedetect/internal/app"
	"github.com/tphakala/voicedetect/internal/buildinfo"
)

func TestRootCommandTree(t *testing.T) {
	root := RootCommand(app.NewContext(buildinfo.NewContext("1.2.3", "2026-01-01", "abcdef")))

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "file", "tune", "encode"})

	for _, flag := range []string{"config", "debug", "log-level", "detector", "thresholds", "model", "max-concurrent"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := RootCommand(app.NewContext(buildinfo.NewContext("1.2.3", "2026-01-01", "abcdef")))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "voicedetect 1.2.3")
}
