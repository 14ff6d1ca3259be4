package model

import "fmt"

// HSV is a colour in hue/saturation/value space. H is in degrees [0,360),
// S and V are in [0,1].
type HSV struct {
	H float64 `yaml:"h" json:"h" mapstructure:"h"`
	S float64 `yaml:"s" json:"s" mapstructure:"s"`
	V float64 `yaml:"v" json:"v" mapstructure:"v"`
}

// ShapeSignature describes a coloured region to look for on screen.
// When Lower.H > Upper.H the hue range wraps through 0.
type ShapeSignature struct {
	Lower     HSV     `yaml:"lower"      json:"lower"      mapstructure:"lower"`
	Upper     HSV     `yaml:"upper"      json:"upper"      mapstructure:"upper"`
	MinArea   int     `yaml:"min_area"   json:"min_area"   mapstructure:"min_area"`
	MinAspect float64 `yaml:"min_aspect" json:"min_aspect" mapstructure:"min_aspect"`
	MaxAspect float64 `yaml:"max_aspect" json:"max_aspect" mapstructure:"max_aspect"`
}

// ElementQuery is a declarative description of a target element.
// Every field is optional; each strategy reads only the parts it understands.
type ElementQuery struct {
	// Name is a human label used in logs and reports.
	Name string `yaml:"name" json:"name"`
	// Role restricts handle matches to a compact role ("btn", "input").
	Role string `yaml:"role,omitempty" json:"role,omitempty"`
	// Texts are accepted captions in priority order, across locales.
	Texts []string `yaml:"texts,omitempty" json:"texts,omitempty"`
	// Classes restricts handle matches to these native classes.
	Classes []string `yaml:"classes,omitempty" json:"classes,omitempty"`
	// Exclude rejects candidates whose caption contains any of these tokens.
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	// Fallback lists absolute screen positions tried in order.
	Fallback []Point `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	// Shape is a colour signature for the shape strategy.
	Shape *ShapeSignature `yaml:"shape,omitempty" json:"shape,omitempty"`
	// Shortcut is a key combination, e.g. ["alt", "n"].
	Shortcut []string `yaml:"shortcut,omitempty" json:"shortcut,omitempty"`
}

func (q ElementQuery) String() string {
	if q.Name != "" {
		return q.Name
	}
	if len(q.Texts) > 0 {
		return fmt.Sprintf("%q", q.Texts[0])
	}
	return "<anonymous>"
}

// WithTexts returns a copy of q whose Texts are replaced.
func (q ElementQuery) WithTexts(texts ...string) ElementQuery {
	q.Texts = append([]string(nil), texts...)
	return q
}
