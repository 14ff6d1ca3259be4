//go:build windows

package windows

import "github.com/mj1618/wizard-pilot/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		setDPIAware()
		return &platform.Provider{
			Probe:     NewProbe(),
			Inputter:  NewInputter(),
			Messenger: NewMessenger(),
			Launcher:  Launcher{},
			Processes: Processes{},
			Elevation: Elevation{},
		}, nil
	}
}
