package core

import (
	"gocom/config"
	"gocom/internal/metrics"
	"gocom/internal/transport"
	"gocom/util"
)

// Build constructs the appropriate Mode from the given configuration.
// This is the single dispatch point between the CLI and the session
// machinery.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.List {
		return &ListMode{Logger: logger}, nil
	}
	return buildConsole(cfg, logger)
}

func buildConsole(cfg *config.Config, logger *util.Logger) (Mode, error) {
	opener, portCfg := buildOpener(cfg, logger)

	mode := &ConsoleMode{
		Opener:         opener,
		PortCfg:        portCfg,
		Echo:           cfg.Echo,
		FlushOnEnter:   cfg.FlushOnEnter,
		AutoDisconnect: cfg.AutoDisconnect,
		Logger:         logger,
		Metrics:        metrics.New(),
	}

	// Attach/detach watching only makes sense for local serial
	// devices; network and exec targets have no port list to poll.
	if cfg.Watch && isSerial(cfg) {
		interval := cfg.WatchInterval
		if interval <= 0 {
			interval = config.DefaultWatchInterval
		}
		mode.Watcher = transport.NewPollWatcher(interval, logger)
	}

	return mode, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildOpener selects the transport.Opener for the given config and
// returns it together with the transport-level port configuration.
// The Device field of the returned Config carries the opener-specific
// target: a device path, a host:port address, a remote command, or a
// local command line.
func buildOpener(cfg *config.Config, logger *util.Logger) (transport.Opener, transport.Config) {
	portCfg := transport.Config{
		Device:   cfg.Device,
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}

	switch {
	case cfg.TCPAddr != "":
		portCfg.Device = cfg.TCPAddr
		return &transport.TCPOpener{Timeout: cfg.Timeout, Logger: logger}, portCfg

	case cfg.SSHEnabled:
		portCfg.Device = cfg.SSHCommand
		return &transport.SSHOpener{
			Config: &transport.SSHConfig{
				User:          cfg.SSHUser,
				Host:          cfg.SSHHost,
				Port:          cfg.SSHPort,
				KeyPath:       cfg.SSHKeyPath,
				PromptPass:    cfg.SSHPassword,
				UseAgent:      cfg.UseSSHAgent,
				StrictHostKey: cfg.StrictHostKey,
				KnownHosts:    cfg.KnownHostsPath,
				ConnTimeout:   cfg.Timeout,
			},
			Logger: logger,
		}, portCfg

	case cfg.Execute != "":
		portCfg.Device = cfg.Execute
		return &transport.ExecOpener{Logger: logger}, portCfg

	default:
		return &transport.SerialOpener{Logger: logger}, portCfg
	}
}

func isSerial(cfg *config.Config) bool {
	return cfg.TCPAddr == "" && !cfg.SSHEnabled && cfg.Execute == ""
}
