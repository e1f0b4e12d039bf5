package config

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			PrintRoutes:    false,
			Port:           8000,
			MaxUploadMB:    50,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Logger: Logger{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
		Database: Database{
			Driver: "sqlite3",
			Path:   "./rekorded.db",
		},
		Auth: Auth{
			IssuerURL:       "", // e.g. https://clerk.your-domain.com
			JWKSTimeoutSecs: 10,
		},
		Watch: Watch{
			Enabled: false,
			Path:    "./inbox",
		},
	}
}
