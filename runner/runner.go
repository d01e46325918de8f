package runner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leshow/dhcpm/config"
	"github.com/leshow/dhcpm/generator"
	"github.com/leshow/dhcpm/message"
	"github.com/leshow/dhcpm/socketeer"
	"github.com/leshow/dhcpm/stats"
)

const (
	// DefaultMaxRetries counts retries after the first attempt, so the
	// default exchange sends at most 3 messages.
	DefaultMaxRetries = 2

	DefaultTimeout = 5 * time.Second
)

// ErrReplyChannelClosed reports that the result channel was closed under
// the runner, which only happens when the caller tears down the
// socketeer mid-exchange.
var ErrReplyChannelClosed = errors.New("reply channel closed")

// ShutdownError is the operator-initiated outcome: no reply, but not an
// exhaustion either.
type ShutdownError struct {
	Elapsed time.Duration
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown requested, no msg received after %s", e.Elapsed.Round(time.Millisecond))
}

// TimeoutError reports exhaustion: every attempt timed out.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no msg received after %d attempt(s) over %s", e.Attempts, e.Elapsed.Round(time.Millisecond))
}

// Runner drives one exchange: build and enqueue a message, then race
// {reply, shutdown, timeout} with bounded retries. Its collaborators are
// injected so composite flows and tests can wire their own transport.
type Runner struct {
	options  *config.RunnerOptions
	log      *zap.Logger
	send     func(socketeer.Outbound) bool
	results  <-chan message.Inbound
	shutdown <-chan struct{}
	addStat  func(stats.StatValue) bool
}

func New(
	o *config.RunnerOptions,
	log *zap.Logger,
	sendFunc func(socketeer.Outbound) bool,
	results <-chan message.Inbound,
	shutdown <-chan struct{},
	statFunc func(stats.StatValue) bool,
) *Runner {
	return &Runner{
		options:  o,
		log:      log,
		send:     sendFunc,
		results:  results,
		shutdown: shutdown,
		addStat:  statFunc,
	}
}

// Run performs one exchange and returns the first reply received,
// regardless of which attempt triggered it. Each retry rebuilds the
// message and restarts its own timeout window.
func (r *Runner) Run(spec generator.Spec, target socketeer.Target) (message.Message, error) {
	timeout := r.options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	enqueue := func() error {
		msg, err := spec.Build(target.Broadcast)
		if err != nil {
			return fmt.Errorf("building %s message: %w", spec.Kind(), err)
		}
		r.send(socketeer.Outbound{Msg: msg, Target: target})
		return nil
	}

	start := time.Now()
	if err := enqueue(); err != nil {
		return message.Message{}, err
	}

	retries := 0
	attemptStart := start
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case in, ok := <-r.results:
			if !ok {
				r.log.Error("reply channel closed before a reply arrived")
				return message.Message{}, ErrReplyChannelClosed
			}
			r.log.Info("received",
				zap.String("msg_type", in.Msg.TypeName()),
				zap.Stringer("source", in.Source),
				zap.Duration("elapsed", time.Since(attemptStart)),
				zap.Duration("total", time.Since(start)),
				zap.String("msg", in.Msg.Summary()),
			)
			return in.Msg, nil

		case <-r.shutdown:
			r.log.Debug("shutdown signal received")
			return message.Message{}, &ShutdownError{Elapsed: time.Since(start)}

		case <-timer.C:
			if r.options.NoRetry || retries >= r.options.MaxRetries {
				return message.Message{}, &TimeoutError{
					Attempts: retries + 1,
					Elapsed:  time.Since(start),
				}
			}
			retries++
			r.addStat(stats.RetriesStat)
			r.log.Debug("received timeout-- retrying",
				zap.Int("attempt", retries+1),
				zap.Duration("elapsed", time.Since(start)),
			)
			if err := enqueue(); err != nil {
				return message.Message{}, err
			}
			attemptStart = time.Now()
			timer.Reset(timeout)
		}
	}
}
