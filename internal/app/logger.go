package app

import (
	"io"
	"log/slog"

	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

// NewLogger builds the process logger. Production writes JSON, development
// logs at debug unless PRIORITIAI_LOG_LEVEL says otherwise.
func NewLogger(cfg *config.Config, service, version string, out io.Writer) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Output = out
	logCfg.ServiceName = service
	logCfg.ServiceVersion = version

	switch {
	case cfg.LogLevel != "" && cfg.LogLevel != "info":
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	case cfg.IsDevelopment():
		logCfg.Level = observability.LogLevelDebug
	}
	return observability.NewLogger(logCfg)
}
