//go:build !windows

package window

import (
	"github.com/go-vgo/robotgo"
)

// RobotResolver reads the foreground window through robotgo.
type RobotResolver struct{}

func NewResolver() Resolver { return RobotResolver{} }

func (RobotResolver) ActiveWindow() (Info, error) {
	pid := int(robotgo.GetPid())
	if pid <= 0 {
		return Info{}, ErrNoActiveWindow
	}
	return Info{PID: pid, Title: robotgo.GetTitle(), AppName: appName(pid)}, nil
}
