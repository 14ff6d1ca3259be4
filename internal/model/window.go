package model

// Window represents a top-level application window.
type Window struct {
	Handle  Handle `yaml:"handle"          json:"handle"`
	Title   string `yaml:"title"           json:"title"`
	Class   string `yaml:"class,omitempty" json:"class,omitempty"`
	PID     int    `yaml:"pid"             json:"pid"`
	Rect    Rect   `yaml:"rect"            json:"rect"`
	Visible bool   `yaml:"visible"         json:"visible"`
}

// Process is a running OS process as seen by post-install verification.
type Process struct {
	PID         int    `yaml:"pid"                   json:"pid"`
	Name        string `yaml:"name"                  json:"name"`
	Exe         string `yaml:"exe,omitempty"         json:"exe,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string `yaml:"version,omitempty"     json:"version,omitempty"`
}

// FileInfo is the subset of an executable's version resource we care about.
type FileInfo struct {
	Description    string
	ProductVersion string
}
