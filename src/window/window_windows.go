//go:build windows

package window

import (
	"fmt"

	"github.com/go-vgo/robotgo"
	"golang.org/x/sys/windows"
)

// ForegroundResolver asks user32 for the foreground window's process.
type ForegroundResolver struct{}

func NewResolver() Resolver { return ForegroundResolver{} }

func (ForegroundResolver) ActiveWindow() (Info, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return Info{}, ErrNoActiveWindow
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return Info{}, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	if pid == 0 {
		return Info{}, ErrNoActiveWindow
	}
	return Info{PID: int(pid), Title: robotgo.GetTitle(), AppName: appName(int(pid))}, nil
}
