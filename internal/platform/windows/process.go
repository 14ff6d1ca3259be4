//go:build windows

package windows

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/shirou/gopsutil/v3/process"
	winapi "golang.org/x/sys/windows"

	"github.com/mj1618/wizard-pilot/internal/model"
)

// Launcher starts installers; .msi packages go through msiexec.
type Launcher struct{}

func (Launcher) Launch(ctx context.Context, path string) (int, error) {
	var cmd *exec.Cmd
	if strings.EqualFold(filepath.Ext(path), ".msi") {
		cmd = exec.Command("msiexec.exe", "/i", path)
	} else {
		cmd = exec.Command(path)
	}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	go cmd.Wait()
	return cmd.Process.Pid, nil
}

// Processes lists processes with gopsutil and reads version resources.
type Processes struct{}

func (Processes) Processes(ctx context.Context) ([]model.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		exe, _ := p.ExeWithContext(ctx)
		out = append(out, model.Process{PID: int(p.Pid), Name: name, Exe: exe})
	}
	return out, nil
}

func (Processes) FileInfo(path string) (model.FileInfo, error) {
	size, err := winapi.GetFileVersionInfoSize(path, nil)
	if err != nil {
		return model.FileInfo{}, fmt.Errorf("version info size of %s: %w", path, err)
	}
	block := make([]byte, size)
	if err := winapi.GetFileVersionInfo(path, 0, size, unsafe.Pointer(&block[0])); err != nil {
		return model.FileInfo{}, fmt.Errorf("version info of %s: %w", path, err)
	}

	var trans *[2]uint16
	var n uint32
	if err := winapi.VerQueryValue(unsafe.Pointer(&block[0]), `\VarFileInfo\Translation`, unsafe.Pointer(&trans), &n); err != nil || n < 4 {
		return model.FileInfo{}, fmt.Errorf("no translation table in %s", path)
	}
	prefix := fmt.Sprintf(`\StringFileInfo\%04x%04x\`, trans[0], trans[1])
	return model.FileInfo{
		Description:    versionString(block, prefix+"FileDescription"),
		ProductVersion: versionString(block, prefix+"ProductVersion"),
	}, nil
}

func versionString(block []byte, key string) string {
	var p *uint16
	var n uint32
	if err := winapi.VerQueryValue(unsafe.Pointer(&block[0]), key, unsafe.Pointer(&p), &n); err != nil || n == 0 {
		return ""
	}
	return winapi.UTF16PtrToString(p)
}

// Elevation checks the process token.
type Elevation struct{}

func (Elevation) IsElevated() bool {
	return winapi.GetCurrentProcessToken().IsElevated()
}
