package session

import (
	"fmt"
	"sync"

	"gocom/internal/transport"
	"gocom/util"
)

// Bridge relays out-of-band attach/detach notifications for the
// session's device onto the display.  It is decoupled from the read
// loop's own error detection: a detach notification is informational
// and never mutates the session, unless the AutoDisconnect policy is
// explicitly enabled.
type Bridge struct {
	session *Session
	watcher transport.Watcher
	display Display
	logger  *util.Logger

	// Device is the identity to match when the session is not
	// connected (events for other devices are ignored).
	device string

	// AutoDisconnect, when set at construction, turns a detach of the
	// session's device into a Disconnect call.  Off by default: the
	// read loop notices a dead transport on its own, and whether a
	// detach notification should force the issue is the operator's
	// call.
	autoDisconnect bool

	closeOnce sync.Once
	done      sync.WaitGroup
}

// NewBridge subscribes to the watcher and starts relaying events.
// The bridge owns the watcher and closes it on Close.
func NewBridge(sess *Session, watcher transport.Watcher, display Display, logger *util.Logger, device string, autoDisconnect bool) *Bridge {
	b := &Bridge{
		session:        sess,
		watcher:        watcher,
		display:        display,
		logger:         logger,
		device:         device,
		autoDisconnect: autoDisconnect,
	}
	b.done.Add(1)
	go b.run()
	return b
}

// Close tears down the subscription.  Safe to call more than once.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.watcher.Close()
	})
	b.done.Wait()
	return err
}

func (b *Bridge) run() {
	defer b.done.Done()
	for ev := range b.watcher.Events() {
		if !b.matches(ev.Device) {
			continue
		}

		b.display.Write(fmt.Sprintf("%s device %s %s\n",
			ev.When.Format("15:04:05"), ev.Device, ev.Kind))

		if ev.Kind == transport.DeviceDetached && b.autoDisconnect {
			b.logger.Info("auto-disconnect: %s detached", ev.Device)
			b.session.Disconnect()
		}
	}
}

// matches compares the event against the session's current transport
// identity, falling back to the configured device while disconnected.
func (b *Bridge) matches(device string) bool {
	current := b.session.CurrentDevice()
	if current == "" {
		current = b.device
	}
	return device == current
}
