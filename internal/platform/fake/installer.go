package fake

import (
	"github.com/mj1618/wizard-pilot/internal/clock"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/ocr"
)

// Screen names of the scripted installer.
const (
	ScreenDesktop    = "desktop"
	ScreenWelcome    = "welcome"
	ScreenLicense    = "license"
	ScreenActivation = "activation"
	ScreenReady      = "ready"
	ScreenProgress   = "progress"
	ScreenFinish     = "finish"
)

// Handles of the scripted installer's window and controls.
const (
	WizardWindow model.Handle = 0x100

	WelcomeNext   model.Handle = 0x103
	WelcomeCancel model.Handle = 0x104

	LicenseAccept    model.Handle = 0x111
	LicenseDecline   model.Handle = 0x112
	LicenseNext      model.Handle = 0x113
	ActivationServer model.Handle = 0x121
	ActivationTag    model.Handle = 0x122
	ActivationKey    model.Handle = 0x123
	ActivationNext   model.Handle = 0x124
	ReadyInstall     model.Handle = 0x131
	FinishButton     model.Handle = 0x141
)

// WizardTitle is the scripted installer's window title.
const WizardTitle = "TEHTRIS EDR Setup"

var (
	nextRect    = model.Rect{Left: 300, Top: 350, Right: 380, Bottom: 372}
	cancelRect  = model.Rect{Left: 400, Top: 350, Right: 480, Bottom: 372}
	acceptRect  = model.Rect{Left: 30, Top: 280, Right: 400, Bottom: 296}
	declineRect = model.Rect{Left: 30, Top: 300, Right: 400, Bottom: 316}
)

func wizardWindow() []model.Window {
	return []model.Window{
		{Handle: 0x50, Title: "Program Manager", Class: "Progman", PID: 10, Rect: model.Rect{Right: 1920, Bottom: 1080}, Visible: true},
		{Handle: WizardWindow, Title: WizardTitle, Class: "MsiDialogCloseClass", PID: 4242, Rect: model.Rect{Right: 500, Bottom: 390}, Visible: true},
	}
}

func button(h model.Handle, text string, r model.Rect) model.Control {
	return model.Control{Handle: h, Parent: WizardWindow, Class: "Button", Role: "btn", Text: text, Rect: r, Visible: true, Enabled: true}
}

func label(h model.Handle, text string, r model.Rect) model.Control {
	return model.Control{Handle: h, Parent: WizardWindow, Class: "Static", Role: "txt", Text: text, Rect: r, Visible: true, Enabled: true}
}

func edit(h model.Handle, r model.Rect) model.Control {
	return model.Control{Handle: h, Parent: WizardWindow, Class: "Edit", Role: "input", Rect: r, Visible: true, Enabled: true}
}

func word(text string, r model.Rect, line int) ocr.Word {
	return ocr.Word{Text: text, Box: r, Confidence: 0.93, Block: line, Par: 1, Line: 1}
}

// Field label and input rectangles on the activation screen.
var (
	ServerLabelRect = model.Rect{Left: 30, Top: 100, Right: 150, Bottom: 116}
	TagLabelRect    = model.Rect{Left: 30, Top: 150, Right: 150, Bottom: 166}
	KeyLabelRect    = model.Rect{Left: 30, Top: 200, Right: 150, Bottom: 216}
	ServerInputRect = model.Rect{Left: 160, Top: 98, Right: 460, Bottom: 118}
	TagInputRect    = model.Rect{Left: 160, Top: 148, Right: 460, Bottom: 168}
	KeyInputRect    = model.Rect{Left: 160, Top: 198, Right: 460, Bottom: 218}
)

// NewInstaller returns a desktop scripted as a TEHTRIS-style MSI wizard:
// welcome, license, activation, ready-to-install, progress and finish.
// The progress screen never shows Finish on its own; tests advance it with
// Switch or SwitchAfter.
func NewInstaller(clk clock.Clock) *Desktop {
	d := New(clk)
	d.Current = ScreenDesktop
	d.LaunchScreen = ScreenWelcome

	d.Screens[ScreenDesktop] = &Screen{Windows: wizardWindow()[:1]}

	d.Screens[ScreenWelcome] = &Screen{
		Windows: wizardWindow(),
		Controls: map[model.Handle][]model.Control{WizardWindow: {
			label(0x101, "Welcome to the TEHTRIS EDR Setup Wizard", model.Rect{Left: 30, Top: 30, Right: 470, Bottom: 60}),
			{Handle: 0x102, Parent: WizardWindow, Class: "Button", Role: "btn", Text: "< &Back", Rect: model.Rect{Left: 220, Top: 350, Right: 295, Bottom: 372}, Visible: true},
			button(WelcomeNext, "&Next >", nextRect),
			button(WelcomeCancel, "Cancel", cancelRect),
		}},
		Words: []ocr.Word{
			word("Next", model.Rect{Left: 310, Top: 354, Right: 350, Bottom: 368}, 2),
			word(">", model.Rect{Left: 355, Top: 354, Right: 365, Bottom: 368}, 2),
			word("Cancel", model.Rect{Left: 410, Top: 354, Right: 470, Bottom: 368}, 3),
		},
	}

	d.Screens[ScreenLicense] = &Screen{
		Windows: wizardWindow(),
		Controls: map[model.Handle][]model.Control{WizardWindow: {
			label(0x110, "End-User License Agreement", model.Rect{Left: 30, Top: 30, Right: 470, Bottom: 60}),
			button(LicenseAccept, "I &accept the terms in the License Agreement", acceptRect),
			button(LicenseDecline, "I do &not accept the terms in the License Agreement", declineRect),
			button(LicenseNext, "&Next >", nextRect),
		}},
	}

	d.Screens[ScreenActivation] = &Screen{
		Windows: wizardWindow(),
		Controls: map[model.Handle][]model.Control{WizardWindow: {
			label(0x120, "Server address", ServerLabelRect),
			// Inputs are enumerated out of visual order on purpose.
			edit(ActivationKey, KeyInputRect),
			edit(ActivationServer, ServerInputRect),
			label(0x125, "Tag", TagLabelRect),
			edit(ActivationTag, TagInputRect),
			label(0x126, "License key", KeyLabelRect),
			button(ActivationNext, "&Next >", nextRect),
		}},
		Words: []ocr.Word{
			word("Server", model.Rect{Left: 30, Top: 100, Right: 80, Bottom: 116}, 1),
			word("address", model.Rect{Left: 85, Top: 100, Right: 150, Bottom: 116}, 1),
			word("Tag", model.Rect{Left: 30, Top: 150, Right: 60, Bottom: 166}, 2),
			word("License", model.Rect{Left: 30, Top: 200, Right: 90, Bottom: 216}, 3),
			word("key", model.Rect{Left: 95, Top: 200, Right: 125, Bottom: 216}, 3),
			word("Next", model.Rect{Left: 310, Top: 354, Right: 350, Bottom: 368}, 4),
			word(">", model.Rect{Left: 355, Top: 354, Right: 365, Bottom: 368}, 4),
		},
	}

	d.Screens[ScreenReady] = &Screen{
		Windows: wizardWindow(),
		Controls: map[model.Handle][]model.Control{WizardWindow: {
			label(0x130, "Ready to install TEHTRIS EDR", model.Rect{Left: 30, Top: 30, Right: 470, Bottom: 60}),
			button(ReadyInstall, "&Install", nextRect),
			button(0x132, "Cancel", cancelRect),
		}},
		Words: []ocr.Word{
			word("Install", model.Rect{Left: 315, Top: 354, Right: 365, Bottom: 368}, 1),
		},
	}

	d.Screens[ScreenProgress] = &Screen{
		Windows: wizardWindow(),
		Controls: map[model.Handle][]model.Control{WizardWindow: {
			label(0x140, "Installing TEHTRIS EDR", model.Rect{Left: 30, Top: 30, Right: 470, Bottom: 60}),
			{Handle: 0x142, Parent: WizardWindow, Class: "msctls_progress32", Role: "progress", Rect: model.Rect{Left: 30, Top: 120, Right: 470, Bottom: 140}, Visible: true, Enabled: true},
			{Handle: 0x143, Parent: WizardWindow, Class: "Button", Role: "btn", Text: "Cancel", Rect: cancelRect, Visible: true},
		}},
	}

	d.Screens[ScreenFinish] = &Screen{
		Windows: wizardWindow(),
		Controls: map[model.Handle][]model.Control{WizardWindow: {
			label(0x144, "Completed the TEHTRIS EDR Setup Wizard", model.Rect{Left: 30, Top: 30, Right: 470, Bottom: 60}),
			button(FinishButton, "&Finish", nextRect),
		}},
		Words: []ocr.Word{
			word("Finish", model.Rect{Left: 315, Top: 354, Right: 365, Bottom: 368}, 1),
		},
	}

	d.OnClick[WelcomeNext] = ScreenLicense
	d.OnClick[LicenseNext] = ScreenActivation
	d.OnClick[ActivationNext] = ScreenReady
	d.OnClick[ReadyInstall] = ScreenProgress
	d.OnClick[FinishButton] = ScreenDesktop

	d.Procs = []model.Process{
		{PID: 4, Name: "System"},
		{PID: 812, Name: "svchost.exe", Exe: `C:\Windows\System32\svchost.exe`},
		{PID: 5120, Name: "tehtris_agent.exe", Exe: `C:\Program Files\TEHTRIS\EDR\tehtris_agent.exe`},
	}
	d.Files[`C:\Program Files\TEHTRIS\EDR\tehtris_agent.exe`] = model.FileInfo{Description: "TEHTRIS EDR Agent", ProductVersion: "2.4.1"}
	d.Elevated = true
	return d
}
