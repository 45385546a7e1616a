// Command eventqueue operates a persisted event queue.
//
// It tracks single events, drains the queue on demand or on a timer, prints
// what is pending, and can serve a reference collector for local testing.
package main

import (
	"errors"
	"fmt"
	"os"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by invalid flags or configuration.
type usageError struct {
	err error
}

func (e usageError) Error() string {
	return e.err.Error()
}

func (e usageError) Unwrap() error {
	return e.err
}

func exitCode(err error) int {
	var usage usageError
	if errors.As(err, &usage) {
		return exitUsage
	}

	return exitFailure
}

func main() {
	cmd := newRootCommand(os.Getenv)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
