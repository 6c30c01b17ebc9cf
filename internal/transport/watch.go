package transport

import (
	"sync"
	"time"

	serial "go.bug.st/serial"

	"gocom/util"
)

// DefaultPollInterval is how often the watcher re-enumerates devices.
const DefaultPollInterval = 2 * time.Second

// PollWatcher emits attach/detach events by periodically enumerating
// the serial devices present and diffing against the previous set.
// The OS gives no portable hotplug notification, so polling it is.
type PollWatcher struct {
	interval time.Duration
	logger   *util.Logger
	list     func() ([]string, error) // overridable in tests

	events    chan Event
	stop      chan struct{}
	closeOnce sync.Once
	done      sync.WaitGroup
}

// NewPollWatcher starts watching.  A zero interval uses
// DefaultPollInterval.
func NewPollWatcher(interval time.Duration, logger *util.Logger) *PollWatcher {
	return newPollWatcher(interval, logger, serial.GetPortsList)
}

func newPollWatcher(interval time.Duration, logger *util.Logger, list func() ([]string, error)) *PollWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	w := &PollWatcher{
		interval: interval,
		logger:   logger,
		list:     list,
		events:   make(chan Event, 8),
		stop:     make(chan struct{}),
	}
	w.done.Add(1)
	go w.run()
	return w
}

// Events returns the notification channel.  It is closed by Close.
func (w *PollWatcher) Events() <-chan Event { return w.events }

// Close stops the poll loop and closes the event channel.
func (w *PollWatcher) Close() error {
	w.closeOnce.Do(func() { close(w.stop) })
	w.done.Wait()
	return nil
}

func (w *PollWatcher) run() {
	defer w.done.Done()
	defer close(w.events)

	// The baseline must come from a successful enumeration: an error
	// here would read as an empty device set, and devices present at
	// startup would fire a bogus attach on the first good tick.
	known, seeded := w.snapshot()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
		}

		current, ok := w.snapshot()
		if !ok {
			// Transient enumerate failure.  Diffing against an empty
			// set would detach every known device and re-attach it a
			// tick later; keep the previous set and retry.
			continue
		}
		if !seeded {
			known, seeded = current, true
			continue
		}
		now := time.Now()

		for dev := range current {
			if !known[dev] {
				w.emit(Event{Kind: DeviceAttached, Device: dev, When: now})
			}
		}
		for dev := range known {
			if !current[dev] {
				w.emit(Event{Kind: DeviceDetached, Device: dev, When: now})
			}
		}
		known = current
	}
}

func (w *PollWatcher) snapshot() (map[string]bool, bool) {
	devs, err := w.list()
	if err != nil {
		w.logger.Debug("watcher: enumerate failed: %v", err)
		return nil, false
	}
	set := make(map[string]bool, len(devs))
	for _, d := range devs {
		set[d] = true
	}
	return set, true
}

// emit drops events rather than block: a stalled consumer must not
// wedge the poll loop.
func (w *PollWatcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
		w.logger.Debug("watcher: dropping %s event for %s", ev.Kind, ev.Device)
	}
}
