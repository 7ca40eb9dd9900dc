package notify

import (
	"fmt"
	"runtime"

	"github.com/awp-dev/awpengine/internal/events"
	"github.com/go-toast/toast"
)

// ToastChannel shows a desktop toast for sync conflicts.
type ToastChannel struct {
	appID string
}

// NewToastChannel creates a ToastChannel; appID defaults to "awpengine".
func NewToastChannel(appID string) *ToastChannel {
	if appID == "" {
		appID = "awpengine"
	}
	return &ToastChannel{appID: appID}
}

func (t *ToastChannel) Name() string { return "toast" }

// ShouldNotify fires only for conflicts, which need operator attention.
func (t *ToastChannel) ShouldNotify(evt events.Event) bool {
	return evt.Type == events.TypeSyncConflict
}

// Send displays the toast. go-toast/toast only supports Windows.
func (t *ToastChannel) Send(evt events.Event) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("toast notifications only supported on Windows")
	}
	notification := toast.Notification{
		AppID:   t.appID,
		Title:   "Sync conflict",
		Message: fmt.Sprintf("%v", evt.Payload),
		Audio:   toast.Default,
	}
	return notification.Push()
}

// IsSupported reports whether the host platform can display toasts.
func (t *ToastChannel) IsSupported() bool { return runtime.GOOS == "windows" }
