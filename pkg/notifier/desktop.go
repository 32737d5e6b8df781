package notifier

import (
	"context"
	"os"
	"runtime"

	"github.com/gen2brain/beeep"
)

type desktopNotifier struct {
	appName string
	getenv  func(string) string
}

// NewDesktopNotifier returns a notifier that raises native desktop
// notifications.
func NewDesktopNotifier(appName string) Notifier {
	return &desktopNotifier{appName: appName, getenv: os.Getenv}
}

// Available reports whether a desktop session is reachable. On Linux and the
// BSDs that means an X11, Wayland or D-Bus session.
func (n *desktopNotifier) Available() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	}
	for _, key := range []string{"DISPLAY", "WAYLAND_DISPLAY", "DBUS_SESSION_BUS_ADDRESS"} {
		if n.getenv(key) != "" {
			return true
		}
	}
	return false
}

func (n *desktopNotifier) Notify(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.appName != "" {
		beeep.AppName = n.appName
	}
	return beeep.Notify(title, message, "")
}
