package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

func breakerSettings(name string, cfg Config, log zerolog.Logger) gobreaker.Settings {
	threshold := cfg.FailureThreshold
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up says nothing about the dependency.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ev := log.Info()
			if to == gobreaker.StateOpen {
				ev = log.Warn()
			}
			ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	}
}

func newBreaker[T any](name string, cfg Config, log zerolog.Logger) *gobreaker.CircuitBreaker[T] {
	breakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[T](breakerSettings(name, cfg, log))
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
