// Package parallel provides small fork/join helpers for the engines.
package parallel

import "sync"

// ErrorCollector keeps the first non-nil error reported by a set of
// goroutines. The zero value is ready to use.
type ErrorCollector struct {
	once sync.Once
	err  error
}

// SetError records err if no error has been recorded yet. Nil is ignored.
func (c *ErrorCollector) SetError(err error) {
	if err != nil {
		c.once.Do(func() {
			c.err = err
		})
	}
}

// Err returns the first recorded error. Call it after all goroutines joined.
func (c *ErrorCollector) Err() error {
	return c.err
}

// Pair runs left on a new goroutine and right on the caller's goroutine,
// waits for both and returns the first error observed.
//
// Parameters:
//   - left: The task forked onto a new goroutine.
//   - right: The task run inline.
//
// Returns:
//   - error: The first error recorded by either task, or nil.
func Pair(left, right func() error) error {
	var (
		ec ErrorCollector
		wg sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ec.SetError(left())
	}()
	ec.SetError(right())
	wg.Wait()
	return ec.Err()
}
