package config

import "go.uber.org/fx"

// Module supplies an already loaded config so logging and tracing can be set up before fx starts.
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
	)
}
