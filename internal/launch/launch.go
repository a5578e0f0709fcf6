package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/HMasataka/avgap/pkg/netaddr"
)

type State string

const (
	StateIdle               State = "idle"
	StateDiscoveringAddress State = "discovering_address"
	StateAnnouncing         State = "announcing"
	StateServerRunning      State = "server_running"
	StateTerminated         State = "terminated"
)

type Options struct {
	Port         int
	Command      []string
	StartupGrace time.Duration
	ReadyTimeout time.Duration
	Stdout       io.Writer
	Stdin        io.Reader
	Source       netaddr.Source
	Runner       Runner
	OnState      func(State)
}

func DefaultOptions() Options {
	return Options{
		Port:         8501,
		StartupGrace: 3 * time.Second,
		ReadyTimeout: 30 * time.Second,
		Stdout:       os.Stdout,
		Stdin:        os.Stdin,
		Source:       netaddr.NewSystemSource(),
		Runner:       NewExecRunner(),
	}
}

type Launcher struct {
	options Options
	state   State
}

func NewLauncher(options Options) *Launcher {
	defaults := DefaultOptions()

	if options.Port < 1 || options.Port > 65535 {
		options.Port = defaults.Port
	}
	if options.StartupGrace <= 0 {
		options.StartupGrace = defaults.StartupGrace
	}
	if options.ReadyTimeout <= 0 {
		options.ReadyTimeout = defaults.ReadyTimeout
	}
	if options.Stdout == nil {
		options.Stdout = defaults.Stdout
	}
	if options.Stdin == nil {
		options.Stdin = defaults.Stdin
	}
	if options.Source == nil {
		options.Source = defaults.Source
	}
	if options.Runner == nil {
		options.Runner = defaults.Runner
	}

	return &Launcher{options: options, state: StateIdle}
}

func (l *Launcher) State() State {
	return l.state
}

// Run walks the whole launch sequence: discover the LAN address,
// announce the access URLs, then block on the server process until it
// exits. The announcement always happens, even when discovery fails or
// the launch itself is doomed.
func (l *Launcher) Run(ctx context.Context) error {
	host := l.discover()

	l.setState(StateAnnouncing)
	Announce(l.options.Stdout, host, l.options.Port)

	l.setState(StateServerRunning)
	err := l.serve(ctx)

	l.setState(StateTerminated)

	if err != nil {
		fmt.Fprintf(l.options.Stdout, "\n ERROR: %v\n", err)
	}

	l.pause()

	return err
}

func (l *Launcher) discover() string {
	l.setState(StateDiscoveringAddress)

	ip, err := netaddr.Discover(l.options.Source)
	if err != nil {
		slog.Warn("no usable LAN address", slog.String("error", err.Error()))
		return NoNetworkPlaceholder
	}

	return ip.String()
}

func (l *Launcher) serve(ctx context.Context) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(l.options.Port))

	if err := probePort(addr, time.Second); err != nil {
		return err
	}

	command := resolveCommand(l.options.Command)
	slog.Info("starting server", slog.String("command", command[0]), slog.Int("port", l.options.Port))

	proc, err := l.options.Runner.Start(command)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerLaunchFailed, err)
	}

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- proc.Wait()
	}()

	// Forward interrupts so the server shuts down before the console closes
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	forwardCtx, cancelForward := context.WithCancel(ctx)
	defer cancelForward()

	go func() {
		for {
			select {
			case <-forwardCtx.Done():
				return
			case sig := <-sigCh:
				if err := proc.Signal(sig); err != nil {
					slog.Error("failed to forward signal", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// An exit inside the grace window means the server never came up
	grace := time.NewTimer(l.options.StartupGrace)
	defer grace.Stop()

	select {
	case waitErr := <-waitCh:
		if waitErr != nil {
			return fmt.Errorf("%w: server exited during startup: %v", ErrServerLaunchFailed, waitErr)
		}
		fmt.Fprintf(l.options.Stdout, "\n The server has stopped.\n")
		return nil
	case <-grace.C:
	}

	readyCtx, cancelReady := context.WithCancel(ctx)
	defer cancelReady()

	go func() {
		if waitReady(readyCtx, addr, l.options.ReadyTimeout) {
			slog.Info("server is ready", slog.String("addr", addr))
		}
	}()

	waitErr := <-waitCh
	cancelReady()

	if waitErr != nil {
		slog.Warn("server exited abnormally", slog.String("error", waitErr.Error()))
		fmt.Fprintf(l.options.Stdout, "\n The server has stopped: %v\n", waitErr)
	} else {
		fmt.Fprintf(l.options.Stdout, "\n The server has stopped.\n")
	}

	return nil
}

// pause keeps the console window open until the user acknowledges, so
// failure output stays readable when the launcher was double clicked.
func (l *Launcher) pause() {
	fmt.Fprintf(l.options.Stdout, "\n Press Enter to exit...")

	reader := bufio.NewReader(l.options.Stdin)
	if _, err := reader.ReadString('\n'); err != nil {
		// EOF on a non interactive stdin, nothing to wait for
		return
	}
}

func (l *Launcher) setState(next State) {
	l.state = next
	if l.options.OnState != nil {
		l.options.OnState(next)
	}
}
