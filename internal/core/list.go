package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"gocom/internal/transport"
	"gocom/util"
)

// ListMode enumerates the serial devices currently attached and
// prints one per line.  At verbose it adds USB metadata.
type ListMode struct {
	Logger *util.Logger

	// Out defaults to os.Stdout when nil.  List and Details default
	// to the OS port enumeration.  Override in tests.
	Out     io.Writer
	List    func() ([]string, error)
	Details func() ([]transport.PortDetail, error)
}

func (m *ListMode) out() io.Writer {
	if m.Out != nil {
		return m.Out
	}
	return os.Stdout
}

func (m *ListMode) list() ([]string, error) {
	if m.List != nil {
		return m.List()
	}
	return transport.ListPorts()
}

func (m *ListMode) details() ([]transport.PortDetail, error) {
	if m.Details != nil {
		return m.Details()
	}
	return transport.ListPortDetails()
}

// Run prints the attached devices in stable order.
func (m *ListMode) Run(ctx context.Context) error {
	if m.Logger.Level() >= util.LogVerbose {
		return m.runDetailed()
	}

	ports, err := m.list()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}

	if len(ports) == 0 {
		m.Logger.Info("no serial ports found")
		return nil
	}

	sort.Strings(ports)
	for _, p := range ports {
		fmt.Fprintln(m.out(), p)
	}
	return nil
}

func (m *ListMode) runDetailed() error {
	ports, err := m.details()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}

	if len(ports) == 0 {
		m.Logger.Info("no serial ports found")
		return nil
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	for _, p := range ports {
		if !p.IsUSB {
			fmt.Fprintln(m.out(), p.Name)
			continue
		}
		line := fmt.Sprintf("%s  %s:%s", p.Name, p.VID, p.PID)
		if p.SerialNumber != "" {
			line += "  sn=" + p.SerialNumber
		}
		if p.Product != "" {
			line += "  " + p.Product
		}
		fmt.Fprintln(m.out(), line)
	}
	return nil
}
