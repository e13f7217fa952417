package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/yanun0323/logs"
)

// Desktop delivers OS-level notifications. Delivery is best effort; a failed
// notification is logged and dropped.
type Desktop struct {
	icon string
}

// NewDesktop builds a desktop notifier. icon may be empty.
func NewDesktop(icon string) *Desktop {
	return &Desktop{icon: icon}
}

// Deliver shows one notification with the given title and body.
func (d *Desktop) Deliver(title, body string) {
	if d == nil {
		return
	}
	if err := beeep.Notify(title, body, d.icon); err != nil {
		logs.Errorf("deliver notification, err: %+v", err)
	}
}

// Nop swallows every notification.
type Nop struct{}

// Deliver implements the notifier surface and does nothing.
func (Nop) Deliver(string, string) {}
