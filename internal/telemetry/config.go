package telemetry

// Config holds OpenTelemetry configuration for the dispatcher's
// per-service spans.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	SampleRate     float64 // 0.0..1.0
}

func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "opcuad",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}
