package config

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"RECUR_OTEL_ENABLED" default:"false"`
	ServiceName string `env:"RECUR_SERVICE_NAME" default:"recur"`
}
