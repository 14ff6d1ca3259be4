package model

// InstallationConfig is the per-tenant data typed into the activation
// screen. It is supplied once at start and never modified.
type InstallationConfig struct {
	ServerAddress string `yaml:"server"  json:"server"  mapstructure:"server"`
	Tag           string `yaml:"tag"     json:"tag"     mapstructure:"tag"`
	LicenseKey    string `yaml:"-"       json:"-"       mapstructure:"license"`
}
