package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch re-reads the config file at path whenever it is written and passes the
// decoded result to onChange. Env overrides still apply on every reload.
// Decode failures are logged and the previous configuration stays in effect.
func Watch(path string, logger *zerolog.Logger, onChange func(Config)) error {
	v := newViper(Default())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			logger.Warn().Err(err).Str("path", e.Name).Msg("ignoring invalid config change")
			return
		}
		logger.Info().Str("path", e.Name).Msg("config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
