package cli

import (
	"strings"

	"github.com/koustreak/timefs/internal/config"
	"github.com/koustreak/timefs/internal/logger"
	"github.com/koustreak/timefs/internal/metrics"
	"github.com/koustreak/timefs/internal/vfs"
)

// env is what every command needs: the loaded configuration, the logger and
// the backend registry built from them.
type env struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *vfs.Registry
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(globalFlags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if globalFlags.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(globalFlags.LogLevel)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger()
	logger.SetGlobal(log)

	var m vfs.Metrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		m = metrics.NewVFSMetrics()
	}

	return &env{
		cfg:      cfg,
		log:      log,
		registry: vfs.NewRegistry(cfg.VFSOptions(log, m)),
	}, nil
}
