package model

import (
	"fmt"
	"strings"
)

// TargetKind identifies how a located element is to be acted on.
type TargetKind int

const (
	// TargetPoint is a screen coordinate acted on with synthetic input.
	TargetPoint TargetKind = iota
	// TargetHandle is a native control acted on with window messages.
	TargetHandle
	// TargetShortcut is a key combination sent to the foreground window.
	TargetShortcut
)

func (k TargetKind) String() string {
	switch k {
	case TargetPoint:
		return "point"
	case TargetHandle:
		return "handle"
	case TargetShortcut:
		return "shortcut"
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

// MarshalText lets TargetKind serialize as its name in JSON and YAML.
func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// LocatedElement is the outcome of a successful strategy. Point-kind
// elements carry the FrameSeq of the capture they were derived from.
type LocatedElement struct {
	Kind       TargetKind `yaml:"kind"              json:"kind"`
	Point      Point      `yaml:"point"             json:"point"`
	Control    *Control   `yaml:"control,omitempty" json:"control,omitempty"`
	Keys       []string   `yaml:"keys,omitempty"    json:"keys,omitempty"`
	Bounds     Rect       `yaml:"bounds"            json:"bounds"`
	Strategy   string     `yaml:"strategy"          json:"strategy"`
	Confidence float64    `yaml:"confidence"        json:"confidence"`
	Text       string     `yaml:"text,omitempty"    json:"text,omitempty"`
	FrameSeq   uint64     `yaml:"frame,omitempty"   json:"frame,omitempty"`
}

func (e LocatedElement) String() string {
	switch e.Kind {
	case TargetHandle:
		if e.Control != nil {
			return fmt.Sprintf("%s %s %q via %s (%.2f)", e.Kind, e.Control.Handle, e.Text, e.Strategy, e.Confidence)
		}
	case TargetShortcut:
		return fmt.Sprintf("%s %s via %s (%.2f)", e.Kind, strings.Join(e.Keys, "+"), e.Strategy, e.Confidence)
	}
	return fmt.Sprintf("%s (%d,%d) via %s (%.2f)", e.Kind, e.Point.X, e.Point.Y, e.Strategy, e.Confidence)
}
