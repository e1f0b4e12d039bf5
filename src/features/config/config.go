package config

// Config holds the application configuration.
type Config struct {
	Server   Server   `yaml:"server" json:"server"`
	Logger   Logger   `yaml:"logger" json:"logger"`
	Database Database `yaml:"database" json:"database"`
	Auth     Auth     `yaml:"auth" json:"auth"`
	Watch    Watch    `yaml:"watch" json:"watch"`
}

// Server hold the configuration for the Fiber server
type Server struct {
	PrintRoutes    bool     `yaml:"show_routes" json:"show_routes"`
	Port           uint32   `yaml:"port" json:"port" validate:"required"`
	MaxUploadMB    int      `yaml:"max_upload_mb" json:"max_upload_mb" validate:"gte=1,lte=512"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (s Server) MaxUploadBytes() int {
	return s.MaxUploadMB * 1024 * 1024
}

// Logger holds the configuration for the app logging
type Logger struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Level   string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" json:"format" validate:"omitempty,oneof=json text logfmt"`
}

// Database holds the configuration for the database
type Database struct {
	Driver string `yaml:"driver" json:"driver" validate:"required,oneof=sqlite3 sqlite"`
	Path   string `yaml:"path" json:"path" validate:"required"`
}

// Auth holds the identity provider settings used to verify bearer tokens.
type Auth struct {
	IssuerURL       string `yaml:"issuer_url" json:"issuer_url" validate:"omitempty,url"`
	JWKSTimeoutSecs int    `yaml:"jwks_timeout_secs" json:"jwks_timeout_secs" validate:"gte=0"`
}

// Watch configures the drop folder that is imported automatically.
type Watch struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path" validate:"required_if=Enabled true"`
	OwnerID    string `yaml:"owner_id" json:"owner_id" validate:"required_if=Enabled true"`
	OwnerEmail string `yaml:"owner_email" json:"owner_email"`
}
