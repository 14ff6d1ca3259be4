package locate

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
	"github.com/mj1618/wizard-pilot/internal/platform"
)

// TextReader recognises words on a frame, in screen coordinates.
// *ocr.Locator satisfies it.
type TextReader interface {
	Read(ctx context.Context, frame *model.ScreenFrame) ([]ocr.Word, error)
}

// Binding tracks the installer's main window across steps. It holds a weak
// reference only: the window may disappear at any time.
type Binding struct {
	Title     *regexp.Regexp
	window    *model.Window
	pixelOnly bool
}

// NewBinding returns an unbound binding matching windows by title.
func NewBinding(title *regexp.Regexp) *Binding {
	return &Binding{Title: title}
}

// Bind records w as the installer window and leaves pixel-only mode.
func (b *Binding) Bind(w model.Window) {
	b.window = &w
	b.pixelOnly = false
}

// Lose drops the window and switches to pixel-only strategies.
func (b *Binding) Lose() {
	b.window = nil
	b.pixelOnly = true
}

// Window returns the bound window, if any.
func (b *Binding) Window() (model.Window, bool) {
	if b == nil || b.window == nil {
		return model.Window{}, false
	}
	return *b.window, true
}

// PixelOnly reports whether handle-based strategies are disabled.
func (b *Binding) PixelOnly() bool {
	return b != nil && b.pixelOnly
}

// Match picks the installer window from a fresh enumeration: the bound
// handle if it is still visible, otherwise the first visible window whose
// title matches the pattern.
func (b *Binding) Match(windows []model.Window) (model.Window, bool) {
	if b == nil {
		return model.Window{}, false
	}
	if b.window != nil {
		for _, w := range windows {
			if w.Handle == b.window.Handle && w.Visible {
				return w, true
			}
		}
	}
	if b.Title == nil {
		return model.Window{}, false
	}
	for _, w := range windows {
		if w.Visible && w.Title != "" && b.Title.MatchString(w.Title) {
			return w, true
		}
	}
	return model.Window{}, false
}

// Scene memoizes everything probed during one Resolve call, so every
// strategy in the chain sees the same snapshot and nothing outlives it.
type Scene struct {
	probe   platform.ScreenProbe
	text    TextReader
	binding *Binding

	frame     *model.ScreenFrame
	frameErr  error
	haveFrame bool

	words     []ocr.Word
	wordsErr  error
	haveWords bool

	window     model.Window
	windowErr  error
	haveWindow bool

	controls     []model.Control
	controlsErr  error
	haveControls bool
}

// NewScene starts an empty snapshot.
func NewScene(probe platform.ScreenProbe, text TextReader, binding *Binding) *Scene {
	return &Scene{probe: probe, text: text, binding: binding}
}

// Frame captures the screen once per scene.
func (s *Scene) Frame(ctx context.Context) (*model.ScreenFrame, error) {
	if !s.haveFrame {
		s.haveFrame = true
		s.frame, s.frameErr = s.probe.CaptureFrame(ctx)
	}
	return s.frame, s.frameErr
}

// Words runs OCR over the scene's frame once.
func (s *Scene) Words(ctx context.Context) ([]ocr.Word, error) {
	if !s.haveWords {
		s.haveWords = true
		if s.text == nil {
			s.wordsErr = fmt.Errorf("no text recognizer configured")
		} else if frame, err := s.Frame(ctx); err != nil {
			s.wordsErr = err
		} else {
			s.words, s.wordsErr = s.text.Read(ctx, frame)
		}
	}
	return s.words, s.wordsErr
}

// Window re-acquires the installer window from a fresh enumeration,
// updating the binding. It returns model.ErrBindingLost when no window
// qualifies or the binding is pixel-only.
func (s *Scene) Window(ctx context.Context) (model.Window, error) {
	if !s.haveWindow {
		s.haveWindow = true
		s.window, s.windowErr = s.findWindow(ctx)
	}
	return s.window, s.windowErr
}

func (s *Scene) findWindow(ctx context.Context) (model.Window, error) {
	if s.binding.PixelOnly() {
		return model.Window{}, model.ErrBindingLost
	}
	windows, err := s.probe.ListWindows(ctx)
	if err != nil {
		return model.Window{}, fmt.Errorf("listing windows: %w", err)
	}
	w, ok := s.binding.Match(windows)
	if !ok {
		pattern := "<none>"
		if s.binding != nil && s.binding.Title != nil {
			pattern = s.binding.Title.String()
		}
		return model.Window{}, fmt.Errorf("%w: no visible window matching %s", model.ErrBindingLost, pattern)
	}
	s.binding.Bind(w)
	return w, nil
}

// Controls enumerates the installer window's controls once.
func (s *Scene) Controls(ctx context.Context) ([]model.Control, error) {
	if !s.haveControls {
		s.haveControls = true
		if w, err := s.Window(ctx); err != nil {
			s.controlsErr = err
		} else {
			s.controls, s.controlsErr = s.probe.ListControls(ctx, w.Handle)
		}
	}
	return s.controls, s.controlsErr
}
