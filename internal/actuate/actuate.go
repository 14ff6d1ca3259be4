// Package actuate performs clicks, keystrokes and text entry on located
// elements.
package actuate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/wizard-pilot/internal/clock"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform"
)

// ActionKind selects what Activate does.
type ActionKind int

const (
	ActionClick ActionKind = iota
	ActionType
	ActionKeypress
)

// Action is one physical interaction with an element.
type Action struct {
	Kind ActionKind
	Text string
	Keys []string
}

// Click activates the element.
func Click() Action { return Action{Kind: ActionClick} }

// Type replaces the element's content with text.
func Type(text string) Action { return Action{Kind: ActionType, Text: text} }

// Keypress sends a key combination to the element.
func Keypress(keys ...string) Action { return Action{Kind: ActionKeypress, Keys: keys} }

func (a Action) String() string {
	switch a.Kind {
	case ActionType:
		return "type"
	case ActionKeypress:
		return "keypress " + platform.ComboString(a.Keys)
	}
	return "click"
}

// Actuator dispatches actions through the platform backends.
type Actuator struct {
	Input     platform.Inputter
	Messenger platform.ControlMessenger
	Clock     clock.Clock
	Log       *zap.Logger
	// Settle is waited after every action so the UI can repaint before the
	// next probe.
	Settle time.Duration
	// TypeDelay is the per-character delay in milliseconds for synthetic typing.
	TypeDelay int
	DryRun    bool
}

// New returns an Actuator with the default settle delay.
func New(input platform.Inputter, messenger platform.ControlMessenger, c clock.Clock, log *zap.Logger) *Actuator {
	if c == nil {
		c = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Actuator{Input: input, Messenger: messenger, Clock: c, Log: log, Settle: 500 * time.Millisecond, TypeDelay: 10}
}

// Activate performs act on el, then waits for the settle delay.
func (a *Actuator) Activate(ctx context.Context, el *model.LocatedElement, act Action) error {
	if el == nil {
		return fmt.Errorf("activate: no element")
	}
	log := a.Log.With(zap.Stringer("target", el), zap.Stringer("action", act))
	if a.DryRun {
		log.Info("dry-run: would perform action")
		return nil
	}

	var err error
	switch act.Kind {
	case ActionClick:
		err = a.click(el)
	case ActionType:
		err = a.typeText(ctx, el, act.Text)
	case ActionKeypress:
		err = a.keypress(el, act.Keys)
	default:
		err = fmt.Errorf("unknown action %d", act.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s on %s: %w", act, el, err)
	}
	log.Debug("action performed")
	return a.Clock.Sleep(ctx, a.Settle)
}

// Keys sends a global key combination to whatever has focus.
func (a *Actuator) Keys(ctx context.Context, keys ...string) error {
	combo := platform.ComboString(keys)
	if a.DryRun {
		a.Log.Info("dry-run: would press keys", zap.String("keys", combo))
		return nil
	}
	if err := a.Input.KeyCombo(keys); err != nil {
		return fmt.Errorf("keys %s: %w", combo, err)
	}
	a.Log.Debug("keys pressed", zap.String("keys", combo))
	return a.Clock.Sleep(ctx, a.Settle)
}

func (a *Actuator) click(el *model.LocatedElement) error {
	switch el.Kind {
	case model.TargetHandle:
		return a.Messenger.PostClick(el.Control.Handle)
	case model.TargetShortcut:
		return a.Input.KeyCombo(el.Keys)
	default:
		if err := a.Input.MoveMouse(el.Point.X, el.Point.Y); err != nil {
			return err
		}
		return a.Input.Click(el.Point.X, el.Point.Y, platform.MouseLeft, 1)
	}
}

func (a *Actuator) typeText(ctx context.Context, el *model.LocatedElement, text string) error {
	switch el.Kind {
	case model.TargetHandle:
		h := el.Control.Handle
		if err := a.Messenger.SetText(h, ""); err != nil {
			return err
		}
		if err := a.Messenger.SetText(h, text); err != nil {
			return err
		}
		got, err := a.Messenger.GetText(h)
		if err != nil {
			return err
		}
		if got != text {
			return fmt.Errorf("%w: control %s holds %q after set", model.ErrActionRejected, h, redact(got))
		}
		return a.Messenger.SendKey(h, "tab")
	case model.TargetShortcut:
		return fmt.Errorf("%w: cannot type into a keyboard shortcut", model.ErrActionRejected)
	default:
		if err := a.click(el); err != nil {
			return err
		}
		if err := a.Clock.Sleep(ctx, a.Settle); err != nil {
			return err
		}
		if err := a.Input.KeyCombo([]string{"ctrl", "a"}); err != nil {
			return err
		}
		if err := a.Input.TypeText(text, a.TypeDelay); err != nil {
			return err
		}
		return a.Input.KeyCombo([]string{"tab"})
	}
}

func (a *Actuator) keypress(el *model.LocatedElement, keys []string) error {
	switch el.Kind {
	case model.TargetHandle:
		if err := a.Messenger.Focus(el.Control.Handle); err != nil {
			return err
		}
	case model.TargetPoint:
		if err := a.click(el); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		keys = el.Keys
	}
	return a.Input.KeyCombo(keys)
}

// redact keeps error messages from echoing full field values such as
// license keys.
func redact(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
