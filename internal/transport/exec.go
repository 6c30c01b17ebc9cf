package transport

import (
	"context"
	"os/exec"
	"runtime"

	ncerr "gocom/internal/errors"
	"gocom/util"
)

// ExecOpener runs a local command and exposes its stdio as the byte
// stream.  cfg.Device is the shell command line.  Useful for wrapping
// console multiplexers and for exercising a session without hardware.
type ExecOpener struct {
	Logger *util.Logger
}

// Open starts the child process with stdout (and stderr, merged) as
// the read side and stdin as the write side.
func (o *ExecOpener) Open(ctx context.Context, cfg Config) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// CommandContext kills the child on cancellation, which closes the
	// stdout pipe and unblocks the read side.
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd.exe", "/C", cfg.Device)
	} else {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", cfg.Device)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, ncerr.Wrap("open", cfg.Device, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ncerr.Wrap("open", cfg.Device, err)
	}
	cmd.Stderr = cmd.Stdout

	o.Logger.Debug("exec: %s", cmd.String())

	if err := cmd.Start(); err != nil {
		return nil, ncerr.Wrap("open", cfg.Device, err)
	}

	closeFn := func() error {
		stdin.Close()
		if cmd.Process != nil {
			cmd.Process.Kill() //nolint:errcheck
		}
		// Wait reaps the child and closes the stdout pipe, which
		// unblocks a pump still stuck in Read.
		err := cmd.Wait()
		if err != nil && !isExitError(err) {
			return ncerr.Wrap("close", cfg.Device, err)
		}
		return nil
	}

	return newStream(stdout, stdin, cfg.Device, closeFn), nil
}

// isExitError reports whether err is the child's (expected) nonzero
// or signal-killed exit status rather than a wait failure.
func isExitError(err error) bool {
	var ee *exec.ExitError
	return ncerr.As(err, &ee)
}
