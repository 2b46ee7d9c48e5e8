// Command painepartneri is a terminal client for the Painepartneri auth
// service: it keeps a session between runs and covers login, registration
// with e-mail verification, and Google sign-in through a loopback redirect.
//
// Usage:
//
//	painepartneri [global flags] <command> [flags] [args]
//
// Run "painepartneri --help" for the command list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	commands := allCommands()

	var opts globalOptions
	global := pflag.NewFlagSet("painepartneri", pflag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.SetInterspersed(false)
	opts.register(global)

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, global, commands)
			return 0
		}
		fmt.Fprintf(stderr, "painepartneri: %v\n\n", err)
		printUsage(stderr, global, commands)
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 || isHelpArg(rest[0]) {
		printUsage(stdout, global, commands)
		if len(rest) == 0 {
			return 2
		}
		return 0
	}

	cmd := findCommand(commands, rest[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "painepartneri: unknown command %q\n\n", rest[0])
		printUsage(stderr, global, commands)
		return 2
	}

	fs := commandFlagSet(cmd)
	if err := fs.Parse(rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(stdout, "Usage: painepartneri %s [flags] %s\n\n%s\n\n%s", cmd.Name, cmd.Args, cmd.Summary, fs.FlagUsages())
			return 0
		}
		fmt.Fprintf(stderr, "painepartneri %s: %v\n", cmd.Name, err)
		return 2
	}

	a, err := newApp(opts, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "painepartneri: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, a, fs, fs.Args()); err != nil {
		return a.report(cmd, err)
	}
	return 0
}
