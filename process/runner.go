package process

import (
	"context"
	"time"

	"github.com/freemocap/skellysubs/resilience"
)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// GracePeriod is the default SIGTERM→SIGKILL grace period applied to
	// commands that don't set their own.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds each execution. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Retry, when set, retries failed executions with backoff.
	Retry *resilience.RetryConfig `yaml:"retry,omitempty" mapstructure:"retry"`
	// CircuitBreaker, when set, trips after repeated failures so a broken
	// ffmpeg install fails fast instead of timing out on every request.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker,omitempty" mapstructure:"circuit_breaker"`
}

// Runner executes subprocesses with persistent resilience state. The circuit
// breaker state survives across calls, so repeated crashes trip the breaker.
type Runner struct {
	config RunnerConfig
	cb     *resilience.CircuitBreaker
}

// NewRunner creates a Runner. A zero config means Run calls process.Run directly.
func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{config: cfg}
	if cfg.CircuitBreaker != nil {
		r.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return r
}

// Run executes a command through the resilience chain, applying runner defaults.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && r.config.GracePeriod > 0 {
		cmd.GracePeriod = r.config.GracePeriod
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	if r.config.Retry != nil {
		return resilience.Retry(ctx, *r.config.Retry, func() (*Result, error) {
			return r.runOnce(ctx, cmd)
		})
	}
	return r.runOnce(ctx, cmd)
}

func (r *Runner) runOnce(ctx context.Context, cmd Command) (*Result, error) {
	if r.cb == nil {
		return Run(ctx, cmd)
	}
	var result *Result
	err := r.cb.Execute(func() error {
		var execErr error
		result, execErr = Run(ctx, cmd)
		return execErr
	})
	return result, err
}
