package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/teja-palleti/Yesu-Mitra/internal/resilience"
)

// Err returns a Checker that reports err. The corpus check is built this
// way: a load failure is permanent for the process lifetime.
func Err(name string, err error) Checker {
	return Checker{Name: name, Check: func(context.Context) error { return err }}
}

// StatusReporter is implemented by [resilience.LLMFallback] and
// [resilience.TTSFallback].
type StatusReporter interface {
	Status() []resilience.EntryStatus
}

// Breakers returns a Checker that fails when every backend of a provider
// chain has an open circuit breaker.
func Breakers(name string, r StatusReporter) Checker {
	return Checker{Name: name, Check: func(context.Context) error {
		status := r.Status()
		if len(status) == 0 {
			return errors.New("no providers configured")
		}
		open := make([]string, 0, len(status))
		for _, s := range status {
			if s.State != resilience.StateOpen {
				return nil
			}
			open = append(open, s.Name)
		}
		return fmt.Errorf("all circuits open: %s", strings.Join(open, ", "))
	}}
}

// WritableDir returns a Checker that fails unless dir exists (or can be
// created) and accepts a new file.
func WritableDir(name, dir string) Checker {
	return Checker{Name: name, Check: func(context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".readyz-*")
		if err != nil {
			return err
		}
		path := f.Name()
		_ = f.Close()
		return os.Remove(path)
	}}
}
