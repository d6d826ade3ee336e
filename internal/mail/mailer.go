package mail

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no SMTP relay is set up. Callers treat
// mail as an optional channel and fall back to persistence alone.
var ErrNotConfigured = errors.New("mail transport not configured")

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	// Text is the plain-text body.
	Text string
	// HTML is the optional HTML body. When set the message goes out as
	// multipart/alternative.
	HTML string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	// Configured reports whether this mailer can actually deliver anything.
	Configured() bool
}

// NopMailer is the stand-in when no relay is configured. Every send fails
// with ErrNotConfigured so callers can tell "not sent" from "send failed".
type NopMailer struct{}

func (NopMailer) Send(context.Context, Message) error { return ErrNotConfigured }
func (NopMailer) Configured() bool                    { return false }

// DispatcherOptions tune retry and throttling behavior.
type DispatcherOptions struct {
	// Attempts is the total number of tries per message, first one included.
	Attempts int
	// Backoff is the pause between consecutive attempts.
	Backoff time.Duration
	// PerAttemptTimeout bounds a single delivery attempt.
	PerAttemptTimeout time.Duration
	// PerSecond caps outbound messages across the process.
	PerSecond float64
}

// DefaultDispatcherOptions matches the relay-friendly defaults.
func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		Attempts:          3,
		Backoff:           2 * time.Second,
		PerAttemptTimeout: 15 * time.Second,
		PerSecond:         1,
	}
}

// Dispatcher wraps a Mailer with a process-wide send rate and per-message
// retries. Relays like shared SMTP hosts throttle aggressively, so the
// dispatcher spaces sends out instead of bursting.
type Dispatcher struct {
	mailer  Mailer
	limiter *rate.Limiter
	opts    DispatcherOptions
	log     *zap.Logger
}

// NewDispatcher wraps mailer. Zero option fields take their defaults.
func NewDispatcher(mailer Mailer, opts DispatcherOptions, log *zap.Logger) *Dispatcher {
	defaults := DefaultDispatcherOptions()
	if opts.Attempts <= 0 {
		opts.Attempts = defaults.Attempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaults.Backoff
	}
	if opts.PerAttemptTimeout <= 0 {
		opts.PerAttemptTimeout = defaults.PerAttemptTimeout
	}
	if opts.PerSecond <= 0 {
		opts.PerSecond = defaults.PerSecond
	}

	return &Dispatcher{
		mailer:  mailer,
		limiter: rate.NewLimiter(rate.Limit(opts.PerSecond), 1),
		opts:    opts,
		log:     log,
	}
}

// Configured reports whether the wrapped mailer can deliver.
func (d *Dispatcher) Configured() bool { return d.mailer.Configured() }

// Send delivers msg through the wrapped mailer, waiting for a rate slot and
// retrying transient failures. Returns the last attempt's error.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	if !d.mailer.Configured() {
		return ErrNotConfigured
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= d.opts.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.opts.PerAttemptTimeout)
		err := d.mailer.Send(attemptCtx, msg)
		cancel()

		if err == nil {
			if attempt > 1 {
				d.log.Info("mail delivered after retry",
					zap.String("to", msg.To),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		lastErr = err
		d.log.Warn("mail delivery attempt failed",
			zap.String("to", msg.To),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.opts.Attempts),
			zap.Error(err),
		)

		if attempt < d.opts.Attempts {
			select {
			case <-time.After(d.opts.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
