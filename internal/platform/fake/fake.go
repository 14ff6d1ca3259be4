// Package fake provides a scripted in-memory desktop implementing every
// platform interface, so the resolver and wizard can be exercised without a
// real window system.
package fake

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/wizard-pilot/internal/clock"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
	"github.com/mj1618/wizard-pilot/internal/platform"
)

// Screen is one scripted state of the desktop.
type Screen struct {
	Windows []model.Window
	// Controls maps a top-level window handle to its descendants.
	Controls map[model.Handle][]model.Control
	// Words is what OCR "sees", already in screen coordinates.
	Words []ocr.Word
	// Pixels is returned by CaptureFrame; a blank 800x600 frame is used
	// when nil.
	Pixels *image.RGBA
}

// AutoSwitch moves to Next once After has elapsed on the fake clock since
// the screen was entered.
type AutoSwitch struct {
	After time.Duration
	Next  string
}

// Region transitions the desktop when a pointer click lands inside Rect.
type Region struct {
	Rect model.Rect
	Next string
}

// Desktop is a scripted fake of the window system.
type Desktop struct {
	mu sync.Mutex

	Screens map[string]*Screen
	Current string

	// LaunchScreen becomes current when Launch is called.
	LaunchScreen string
	LaunchErr    error
	LaunchPID    int

	// OnClick, OnKeys and OnRegion move to another screen when the matching
	// control is clicked, combo pressed, or point clicked.
	OnClick  map[model.Handle]string
	OnKeys   map[string]string
	OnRegion []Region

	// Auto schedules timed transitions when a screen is entered. It needs
	// the desktop to have been built with a *clock.Fake.
	Auto map[string]AutoSwitch

	// RejectText lists handles whose SetText is silently ignored.
	RejectText map[model.Handle]bool

	CaptureErr error
	OCRErr     error

	Procs    []model.Process
	ProcErr  error
	Files    map[string]model.FileInfo
	Elevated bool

	calls []string
	texts map[model.Handle]string
	seq   uint64
	clk   clock.Clock
}

// New returns an empty desktop. clk stamps captured frames; nil uses a
// fixed epoch.
func New(clk clock.Clock) *Desktop {
	if clk == nil {
		clk = clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	return &Desktop{
		Screens:    map[string]*Screen{},
		OnClick:    map[model.Handle]string{},
		OnKeys:     map[string]string{},
		Auto:       map[string]AutoSwitch{},
		RejectText: map[model.Handle]bool{},
		Files:      map[string]model.FileInfo{},
		texts:      map[model.Handle]string{},
		LaunchPID:  4242,
		clk:        clk,
	}
}

// Provider wraps the desktop as a platform.Provider.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{
		Probe:     d,
		Inputter:  d,
		Messenger: d,
		Launcher:  d,
		Processes: d,
		Elevation: d,
	}
}

// Switch makes name the current screen.
func (d *Desktop) Switch(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Current = name
}

// SwitchAfter schedules a screen change on a fake clock.
func (d *Desktop) SwitchAfter(c *clock.Fake, after time.Duration, name string) {
	c.AfterFunc(after, func() { d.Switch(name) })
}

// Screen returns the current screen name.
func (d *Desktop) Screen() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Current
}

// Calls returns every recorded call, in order.
func (d *Desktop) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// CallsWithPrefix returns recorded calls starting with prefix.
func (d *Desktop) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range d.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the value last set on h.
func (d *Desktop) Text(h model.Handle) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.texts[h]
}

func (d *Desktop) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Desktop) current() *Screen {
	if s, ok := d.Screens[d.Current]; ok {
		return s
	}
	return &Screen{}
}

func (d *Desktop) transition(next string) {
	if next == "" {
		return
	}
	d.Current = next
	if auto, ok := d.Auto[next]; ok {
		if fc, ok := d.clk.(*clock.Fake); ok {
			fc.AfterFunc(auto.After, func() {
				d.mu.Lock()
				defer d.mu.Unlock()
				if d.Current == next {
					d.transition(auto.Next)
				}
			})
		}
	}
}

// ScreenProbe

func (d *Desktop) CaptureFrame(ctx context.Context) (*model.ScreenFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CaptureFrame")
	if d.CaptureErr != nil {
		return nil, d.CaptureErr
	}
	d.seq++
	px := d.current().Pixels
	if px == nil {
		px = image.NewRGBA(image.Rect(0, 0, 800, 600))
	}
	return &model.ScreenFrame{Seq: d.seq, Pixels: px, CapturedAt: d.clk.Now()}, nil
}

func (d *Desktop) ListWindows(ctx context.Context) ([]model.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ListWindows")
	return append([]model.Window(nil), d.current().Windows...), nil
}

func (d *Desktop) ListControls(ctx context.Context, parent model.Handle) ([]model.Control, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ListControls %s", parent)
	src := d.current().Controls[parent]
	out := make([]model.Control, len(src))
	for i, c := range src {
		if v, ok := d.texts[c.Handle]; ok {
			c.Text = v
		}
		out[i] = c
	}
	return out, nil
}

// Read implements the OCR reader used by the resolver.
func (d *Desktop) Read(ctx context.Context, frame *model.ScreenFrame) ([]ocr.Word, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("OCR")
	if d.OCRErr != nil {
		return nil, d.OCRErr
	}
	return append([]ocr.Word(nil), d.current().Words...), nil
}

// Inputter

func (d *Desktop) Click(x, y int, button platform.MouseButton, count int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Click %d,%d", x, y)
	p := model.Point{X: x, Y: y}
	for _, r := range d.OnRegion {
		if r.Rect.Contains(p) {
			d.transition(r.Next)
			break
		}
	}
	return nil
}

func (d *Desktop) MoveMouse(x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MoveMouse %d,%d", x, y)
	return nil
}

func (d *Desktop) TypeText(text string, delayMs int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("TypeText %s", text)
	return nil
}

func (d *Desktop) KeyCombo(keys []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	combo := platform.ComboString(keys)
	d.record("KeyCombo %s", combo)
	d.transition(d.OnKeys[combo])
	return nil
}

// ControlMessenger

func (d *Desktop) PostClick(h model.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("PostClick %s", h)
	d.transition(d.OnClick[h])
	return nil
}

func (d *Desktop) SetText(h model.Handle, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetText %s %q", h, text)
	if !d.RejectText[h] {
		d.texts[h] = text
	}
	return nil
}

func (d *Desktop) GetText(h model.Handle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("GetText %s", h)
	return d.texts[h], nil
}

func (d *Desktop) SendKey(h model.Handle, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SendKey %s %s", h, key)
	return nil
}

func (d *Desktop) Focus(h model.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Focus %s", h)
	return nil
}

// Launcher

func (d *Desktop) Launch(ctx context.Context, path string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Launch %s", path)
	if d.LaunchErr != nil {
		return 0, d.LaunchErr
	}
	d.transition(d.LaunchScreen)
	return d.LaunchPID, nil
}

// ProcessLister

func (d *Desktop) Processes(ctx context.Context) ([]model.Process, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Processes")
	if d.ProcErr != nil {
		return nil, d.ProcErr
	}
	return append([]model.Process(nil), d.Procs...), nil
}

func (d *Desktop) FileInfo(path string) (model.FileInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.Files[path]
	if !ok {
		return model.FileInfo{}, fmt.Errorf("no version info for %s", path)
	}
	return info, nil
}

// Elevation

func (d *Desktop) IsElevated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Elevated
}
