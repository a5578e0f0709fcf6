package launch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/HMasataka/avgap/pkg/retry"
)

// probePort fails fast when another process already owns the port,
// instead of letting the server wedge behind a bind error.
func probePort(addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		// Nothing is listening, the port is free
		return nil
	}
	conn.Close()

	return fmt.Errorf("%w: %s is already in use", ErrServerLaunchFailed, addr)
}

var _ retry.Executor = (*readyProbe)(nil)

type readyProbe struct {
	ctx     context.Context
	client  *http.Client
	url     string
	pending bool
	ready   bool
}

func (p *readyProbe) DetermineAction() retry.Action {
	if p.ctx.Err() != nil {
		return retry.Abort
	}
	if p.pending {
		p.pending = false
		return retry.Wait
	}
	return retry.Execute
}

func (p *readyProbe) Execute(attempt int) bool {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return true
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.pending = true
		return false
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		p.ready = true
		return true
	}

	p.pending = true
	return false
}

// waitReady polls the health endpoint until the server answers or the
// timeout passes. The result is informational only.
func waitReady(ctx context.Context, addr string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	probe := &readyProbe{
		ctx:    ctx,
		client: &http.Client{Timeout: 2 * time.Second},
		url:    "http://" + addr + "/health",
	}

	cfg := retry.Config{
		Attempts:     120,
		BaseInterval: 100 * time.Millisecond,
		MaxBackoff:   time.Second,
	}

	retry.RunContext(ctx, cfg, probe)

	return probe.ready
}
