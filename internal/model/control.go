package model

// Control is a native child control discovered by window-handle enumeration.
type Control struct {
	Handle  Handle `yaml:"handle"            json:"handle"`
	Parent  Handle `yaml:"parent,omitempty"  json:"parent,omitempty"`
	Class   string `yaml:"class"             json:"class"`
	Role    string `yaml:"role"              json:"role"`
	Text    string `yaml:"text,omitempty"    json:"text,omitempty"`
	Rect    Rect   `yaml:"rect"              json:"rect"`
	Visible bool   `yaml:"visible"           json:"visible"`
	Enabled bool   `yaml:"enabled"           json:"enabled"`
}
