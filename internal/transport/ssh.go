package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "gocom/internal/errors"
	"gocom/util"
)

// SSHConfig holds everything needed to reach a remote console through
// an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// SSHOpener opens a console session on a remote host: it dials the
// gateway, executes cfg.Device as a remote command, and exposes the
// command's stdio as the byte stream.  Typical remote commands attach
// to a serial device on the gateway itself (e.g. a console server's
// connect command).
type SSHOpener struct {
	Config *SSHConfig
	Logger *util.Logger
}

// Open dials the SSH gateway, starts the remote command, and wraps its
// stdio pipes as a Transport.
func (o *SSHOpener) Open(ctx context.Context, cfg Config) (Transport, error) {
	sc := o.Config
	if sc.Port == 0 {
		sc.Port = 22
	}
	if sc.ConnTimeout == 0 {
		sc.ConnTimeout = 30 * time.Second
	}

	authMethods, err := buildAuthMethods(sc)
	if err != nil {
		return nil, ncerr.WrapSSH("auth", sc.Host, sc.Port, err)
	}

	hkCallback, err := hostKeyCallback(sc)
	if err != nil {
		return nil, ncerr.WrapSSH("hostkey", sc.Host, sc.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            sc.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         sc.ConnTimeout,
	}

	addr := fmt.Sprintf("%s:%d", sc.Host, sc.Port)
	o.Logger.Debug("SSH: dialing %s as %s", addr, sc.User)

	// Use a context-aware TCP dial so callers can cancel.
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ncerr.Wrap("open", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return nil, ncerr.WrapSSH("handshake", sc.Host, sc.Port, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, ncerr.WrapSSH("session", sc.Host, sc.Port, err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, ncerr.WrapSSH("session", sc.Host, sc.Port, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, ncerr.WrapSSH("session", sc.Host, sc.Port, err)
	}

	o.Logger.Verbose("SSH: running %q on %s", cfg.Device, sc.Host)

	if err := sess.Start(cfg.Device); err != nil {
		sess.Close()
		client.Close()
		return nil, ncerr.WrapSSH("exec", sc.Host, sc.Port, err)
	}

	device := fmt.Sprintf("%s:%s", sc.Host, cfg.Device)
	closeFn := func() error {
		// Closing the session tears down the remote command; the
		// client close follows regardless of the session outcome.
		serr := sess.Close()
		cerr := client.Close()
		if serr != nil && !util.IsHarmlessClose(serr) {
			return ncerr.WrapSSH("close", sc.Host, sc.Port, serr)
		}
		if cerr != nil && !util.IsHarmlessClose(cerr) {
			return ncerr.WrapSSH("close", sc.Host, sc.Port, cerr)
		}
		return nil
	}

	return newStream(stdout, stdin, device, closeFn), nil
}
