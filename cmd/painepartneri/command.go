package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is one subcommand of the CLI.
type command struct {
	Name    string
	Args    string
	Summary string

	// Flags registers command-specific flags on fs.
	Flags func(fs *pflag.FlagSet)
	Run   func(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error
}

func findCommand(commands []*command, name string) *command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func printUsage(w io.Writer, global *pflag.FlagSet, commands []*command) {
	fmt.Fprintln(w, "Usage: painepartneri [global flags] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cmd := range commands {
		name := cmd.Name
		if cmd.Args != "" {
			name += " " + cmd.Args
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, cmd.Summary)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprint(w, global.FlagUsages())
}

func commandFlagSet(cmd *command) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.Flags != nil {
		cmd.Flags(fs)
	}
	return fs
}

func isHelpArg(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// usageError is reported with exit status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func requireArgs(name, want string, args []string, n int) error {
	if len(args) != n {
		return usagef("%s: expected %s", name, want)
	}
	return nil
}
