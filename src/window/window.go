// Package window resolves the foreground application.
package window

import (
	"errors"
	"log"

	"github.com/shirou/gopsutil/v4/process"
)

var ErrNoActiveWindow = errors.New("no active window")

// Info describes the foreground window.
type Info struct {
	PID     int
	Title   string
	AppName string
}

// Resolver reports the foreground window.
type Resolver interface {
	ActiveWindow() (Info, error)
}

// appName looks up the executable name for pid; empty when it cannot be read.
func appName(pid int) string {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		log.Printf("window: process %d: %v", pid, err)
		return ""
	}
	name, err := p.Name()
	if err != nil {
		log.Printf("window: process %d name: %v", pid, err)
		return ""
	}
	return name
}

// Static always reports the same window.
type Static struct {
	Info Info
	Err  error
}

func (s Static) ActiveWindow() (Info, error) {
	if s.Err != nil {
		return Info{}, s.Err
	}
	return s.Info, nil
}
