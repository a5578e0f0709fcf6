package launch

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

var (
	// ErrServerLaunchFailed the server process could not be started or died during startup
	ErrServerLaunchFailed = errors.New("server launch failed")
)

type Process interface {
	Wait() error
	Signal(sig os.Signal) error
}

type Runner interface {
	Start(command []string) (Process, error)
}

var _ Runner = (*execRunner)(nil)

type execRunner struct{}

func NewExecRunner() Runner {
	return &execRunner{}
}

func (r *execRunner) Start(command []string) (Process, error) {
	if len(command) == 0 {
		return nil, errors.New("empty server command")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// resolveCommand prefers a server binary sitting next to the launcher,
// then falls back to PATH lookup.
func resolveCommand(configured []string) []string {
	if len(configured) > 0 {
		return configured
	}

	name := "server"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return []string{candidate}
		}
	}

	return []string{name}
}
