// defaults.go: default values for settings
package conf

import "github.com/spf13/viper"

// Default values shared with code that builds settings without viper
const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 8000
	DefaultMaxUploadMB   = 25
	DefaultRateLimitRPM  = 60
	DefaultMinDuration   = 0.5
	DefaultMaxDuration   = 60.0
	DefaultSampleRate    = 16000
	DefaultModelPath     = "models/ai_voice_detector.json"
	DefaultOTLPEndpoint  = "localhost:4317"
	DefaultServiceName   = "voicedetect"
	DefaultDetectorMode  = "heuristic"
	DefaultDevice        = "auto"
	DefaultTraceExporter = "none"
	DefaultLogLevel      = "info"
	DefaultEnvironment   = "dev"
)

// setDefaultConfig sets default values for every configuration key
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", DefaultServiceName)
	viper.SetDefault("main.environment", DefaultEnvironment)

	viper.SetDefault("server.host", DefaultHost)
	viper.SetDefault("server.port", DefaultPort)
	viper.SetDefault("server.corsalloworigins", []string{"*"})
	viper.SetDefault("server.enabledebugroutes", false)

	viper.SetDefault("security.apikey", "")
	viper.SetDefault("security.apikeyfile", "")

	viper.SetDefault("limits.maxuploadmb", DefaultMaxUploadMB)
	viper.SetDefault("limits.ratelimitrpm", DefaultRateLimitRPM)
	viper.SetDefault("limits.minduration", DefaultMinDuration)
	viper.SetDefault("limits.maxduration", DefaultMaxDuration)

	viper.SetDefault("detector.mode", DefaultDetectorMode)
	viper.SetDefault("detector.maxconcurrent", 0)
	viper.SetDefault("detector.thresholdspath", "")
	viper.SetDefault("detector.modelpath", DefaultModelPath)
	viper.SetDefault("detector.device", DefaultDevice)

	viper.SetDefault("audio.samplerate", DefaultSampleRate)
	viper.SetDefault("audio.ffmpegpath", "")
	viper.SetDefault("audio.ffprobepath", "")
	viper.SetDefault("audio.tempdir", "")

	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.file", "")

	viper.SetDefault("observability.metrics", true)
	viper.SetDefault("observability.tracing.exporter", DefaultTraceExporter)
	viper.SetDefault("observability.tracing.endpoint", DefaultOTLPEndpoint)
	viper.SetDefault("observability.tracing.samplerate", 1.0)

	viper.SetDefault("telemetry.sentrydsn", "")
}
