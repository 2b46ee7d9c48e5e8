package main

import (
	"errors"
	"fmt"
	"log/slog"
)

// userError carries the localized text shown for a failed client call.
type userError struct {
	text string
	err  error
}

func (e userError) Error() string { return e.text }
func (e userError) Unwrap() error { return e.err }

// fail wraps a client error for display. Raw server text never reaches the
// user; the underlying error is logged at debug level.
func (a *app) fail(err error) error {
	if err == nil {
		return nil
	}
	return userError{text: a.describe(err), err: err}
}

func (a *app) report(cmd *command, err error) int {
	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(a.errOut, "painepartneri: %s\n", usage.msg)
		return 2
	}

	var user userError
	if errors.As(err, &user) {
		a.logger.Debug("command failed", slog.String("command", cmd.Name), slog.String("error", user.err.Error()))
		fmt.Fprintln(a.errOut, a.styles.fail.Render(user.text))
		return 1
	}

	fmt.Fprintf(a.errOut, "painepartneri %s: %v\n", cmd.Name, err)
	return 1
}
