package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/voicedetect/cmd"
	"github.com/tphakala/voicedetect/internal/app"
	"github.com/tphakala/voicedetect/internal/buildinfo"
)

// Set by the linker: -ldflags "-X main.version=... -X main.buildDate=... -X main.commit=..."
var (
	version   string
	buildDate string
	commit    string
)

func main() {
	ctx := app.NewContext(buildinfo.NewContext(version, buildDate, commit))

	// serve handles its own signals; this context cancels one-shot commands
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.RootCommand(ctx)
	if err := rootCmd.ExecuteContext(runCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		// PersistentPostRunE is skipped when a command fails
		_ = ctx.Close()
		stop()
		os.Exit(1)
	}
}
