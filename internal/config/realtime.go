package config

type RealtimeConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Path           string   `yaml:"path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RelayChannel is the redis pub/sub channel shared by API instances.
	RelayChannel string `yaml:"relay_channel"`
}

func loadRealtimeConfig() *RealtimeConfig {
	return &RealtimeConfig{
		Enabled:        getEnvAsBool("REALTIME_ENABLED", true),
		Path:           getEnv("REALTIME_PATH", "/api/v1/ws"),
		AllowedOrigins: getEnvAsSlice("REALTIME_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RelayChannel:   getEnv("REALTIME_RELAY_CHANNEL", "agencyportal:realtime"),
	}
}
