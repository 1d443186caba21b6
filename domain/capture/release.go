package capture

import (
	"errors"
	"fmt"
)

type release struct {
	name string
	fn   func() error
}

// releaseStack collects cleanup actions for native resources as they are
// acquired. releaseAll runs them in reverse order; every action is attempted
// even if an earlier one failed or panicked.
type releaseStack struct {
	items []release
}

func (s *releaseStack) push(name string, fn func() error) {
	s.items = append(s.items, release{name: name, fn: fn})
}

func (s *releaseStack) len() int { return len(s.items) }

func (s *releaseStack) releaseAll() error {
	var errs []error
	for i := len(s.items) - 1; i >= 0; i-- {
		if err := s.items[i].run(); err != nil {
			errs = append(errs, err)
		}
	}
	s.items = s.items[:0]
	return errors.Join(errs...)
}

func (r release) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("release %s: panic: %v", r.name, p)
		}
	}()
	if e := r.fn(); e != nil {
		return fmt.Errorf("release %s: %w", r.name, e)
	}
	return nil
}

// splitErrors flattens an errors.Join result so each failure can be logged
// on its own.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
