package retry_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/HMasataka/avgap/pkg/retry"
)

type scriptedExecutor struct {
	actions  []retry.Action
	succeed  int
	executed int
}

func (e *scriptedExecutor) DetermineAction() retry.Action {
	if len(e.actions) == 0 {
		return retry.Execute
	}

	a := e.actions[0]
	e.actions = e.actions[1:]

	return a
}

func (e *scriptedExecutor) Execute(attempt int) bool {
	e.executed++
	return e.executed >= e.succeed
}

func TestRun(t *testing.T) {
	t.Run("成功したら打ち切る", func(t *testing.T) {
		e := &scriptedExecutor{succeed: 3}

		retry.Run(retry.Config{Attempts: 10, BaseInterval: time.Millisecond, MaxBackoff: time.Millisecond}, e)

		assert.Equal(t, 3, e.executed)
	})

	t.Run("Abortで即座に終了", func(t *testing.T) {
		e := &scriptedExecutor{actions: []retry.Action{retry.Abort}, succeed: 1}

		retry.Run(retry.DefaultConfig(), e)

		assert.Zero(t, e.executed)
	})

	t.Run("Waitを挟んでも試行回数を超えない", func(t *testing.T) {
		e := &scriptedExecutor{
			actions: []retry.Action{retry.Wait, retry.Execute, retry.Wait, retry.Execute},
			succeed: 100,
		}

		retry.Run(retry.Config{Attempts: 4, BaseInterval: time.Millisecond, MaxBackoff: time.Millisecond}, e)

		assert.Equal(t, 2, e.executed)
	})
}

func TestRunContext(t *testing.T) {
	t.Run("キャンセル済みなら何もしない", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := &scriptedExecutor{succeed: 1}
		retry.RunContext(ctx, retry.DefaultConfig(), e)

		assert.Zero(t, e.executed)
	})

	t.Run("待機中のキャンセルで打ち切る", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		e := &scriptedExecutor{
			actions: []retry.Action{retry.Execute, retry.Wait, retry.Execute},
			succeed: 100,
		}

		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		retry.RunContext(ctx, retry.Config{Attempts: 3, BaseInterval: time.Minute, MaxBackoff: time.Minute}, e)

		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 1, e.executed)
	})
}

func TestBackoff(t *testing.T) {
	t.Run("上限を超えない", func(t *testing.T) {
		limit := 100 * time.Millisecond

		for attempt := 0; attempt < 64; attempt++ {
			d := retry.Backoff(attempt, 20*time.Millisecond, limit)
			assert.Greater(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, limit+limit/10)
		}
	})

	t.Run("試行回数とともに増加する", func(t *testing.T) {
		early := retry.Backoff(0, 10*time.Millisecond, time.Hour)
		late := retry.Backoff(8, 10*time.Millisecond, time.Hour)

		assert.Greater(t, late, early)
	})
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, retry.ShouldRetry(nil))
	assert.False(t, retry.ShouldRetry(context.Canceled))
	assert.False(t, retry.ShouldRetry(context.DeadlineExceeded))
	assert.True(t, retry.ShouldRetry(io.EOF))
	assert.True(t, retry.ShouldRetry(errors.New("connection refused")))
}
