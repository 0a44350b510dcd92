package observability

import "github.com/tphakala/voicedetect/internal/logger"

// Package-level cached logger instance.
var log = logger.Global().Module("observability")
