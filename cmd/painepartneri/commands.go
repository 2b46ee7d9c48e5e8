package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/guard"
	"github.com/MrEthical07/goAuthClient/metrics/export/prometheus"
	"github.com/MrEthical07/goAuthClient/oauth"
	"github.com/spf13/pflag"
)

func allCommands() []*command {
	return []*command{
		{
			Name:    "status",
			Summary: "restore the stored session and show who is logged in",
			Run:     runStatus,
		},
		{
			Name:    "login",
			Args:    "<email>",
			Summary: "log in with email and password",
			Flags: func(fs *pflag.FlagSet) {
				fs.String("password-file", "", "read the password from this file")
			},
			Run: runLogin,
		},
		{
			Name:    "logout",
			Summary: "forget the stored session",
			Run:     runLogout,
		},
		{
			Name:    "register",
			Args:    "<email>",
			Summary: "create an account and verify the emailed code",
			Flags: func(fs *pflag.FlagSet) {
				fs.String("password-file", "", "read the password from this file")
				fs.String("otp", "", "verification code, skipping the interactive prompt")
			},
			Run: runRegister,
		},
		{
			Name:    "verify",
			Args:    "<email> <code>",
			Summary: "submit a verification code for an earlier registration",
			Run:     runVerify,
		},
		{
			Name:    "resend",
			Args:    "<email>",
			Summary: "request a new verification code",
			Run:     runResend,
		},
		{
			Name:    "oauth",
			Summary: "sign in with Google through the browser",
			Flags: func(fs *pflag.FlagSet) {
				fs.Duration("timeout", 5*time.Minute, "how long to wait for the browser redirect")
				fs.String("callback-query", "", "complete with a pasted callback query (code=...&state=...) instead of listening")
			},
			Run: runOAuth,
		},
		{
			Name:    "dashboard",
			Summary: "open the protected dashboard view",
			Run:     runDashboard,
		},
		{
			Name:    "metrics",
			Summary: "bootstrap, then print client metrics in Prometheus format",
			Flags: func(fs *pflag.FlagSet) {
				fs.String("listen", "", "serve /metrics on this address until interrupted")
			},
			Run: runMetrics,
		},
	}
}

func runStatus(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	res, err := a.client.Bootstrap(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.printSession(res)
	return nil
}

func (a *app) printSession(res goAuthClient.BootstrapResult) {
	if res.Cause != nil {
		a.printf("%s\n", a.styles.warn.Render(a.describe(res.Cause)))
	}
	if res.Outcome != goAuthClient.OutcomeAuthenticated || res.Session == nil {
		a.printf("%s %s\n", a.styles.label.Render("status:"), "anonymous")
		return
	}
	a.printf("%s %s\n", a.styles.label.Render("status:"), a.styles.ok.Render("authenticated"))
	a.printf("%s %s\n", a.styles.label.Render("email: "), res.Session.Identity.Email)
	if !res.Session.ExpiresAt.IsZero() {
		a.printf("%s %s\n", a.styles.label.Render("expires:"), res.Session.ExpiresAt.Local().Format(time.RFC3339))
	}
}

func runLogin(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := requireArgs("login", "<email>", args, 1); err != nil {
		return err
	}
	passwordFile, _ := fs.GetString("password-file")
	password, err := a.readPassword("Salasana / Password: ", passwordFile)
	if err != nil {
		return err
	}

	sess, err := a.client.Login(ctx, args[0], password)
	if err != nil {
		return a.fail(err)
	}
	a.printf("%s %s\n", a.styles.ok.Render("✓"), sess.Identity.Email)
	return nil
}

func runLogout(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	if err := a.client.Logout(ctx); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", a.styles.ok.Render("logged out"))
	return nil
}

func runDashboard(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	if _, err := a.client.Bootstrap(ctx); err != nil {
		return a.fail(err)
	}

	decision := guard.NewRouter(nil).Resolve("/dashboard", a.client.Session())
	if !decision.Render {
		return userError{
			text: fmt.Sprintf("%s (%s)", goAuthClient.Message(a.cfg.Locale, goAuthClient.MsgLoginRequired), decision.RedirectTo),
			err:  errors.New("guard redirected to " + decision.RedirectTo),
		}
	}

	identity, _ := a.client.Identity()
	a.printf("%s\n", a.styles.banner.Render("Painepartneri · "+identity.Email))
	return nil
}

func runOAuth(ctx context.Context, a *app, fs *pflag.FlagSet, _ []string) error {
	if query, _ := fs.GetString("callback-query"); query != "" {
		sess, err := a.client.CompleteOAuth(ctx, query)
		if err != nil {
			return a.fail(err)
		}
		a.printf("%s %s → %s\n", a.styles.ok.Render("✓"), sess.Identity.Email, a.client.LandingRoute())
		return nil
	}

	complete := func(ctx context.Context, rawQuery string) (string, error) {
		sess, err := a.client.CompleteOAuth(ctx, rawQuery)
		if err != nil {
			return a.describe(err), err
		}
		return sess.Identity.Email, nil
	}
	server, err := oauth.NewCallbackServer(a.cfg.OAuth.ListenAddr, a.cfg.OAuth.CallbackPath, complete, a.logger)
	if err != nil {
		return err
	}
	defer server.Close()

	redirect, err := a.client.BeginOAuth(ctx)
	if err != nil {
		return a.fail(err)
	}
	a.printf("Open this address in your browser:\n\n  %s\n\n", redirect.AuthorizationURL)
	a.logger.Debug("waiting for oauth callback", slog.String("callback", server.URL()))

	timeout, _ := fs.GetDuration("timeout")
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := server.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("waiting for the browser redirect: %w", err)
	}
	if res.Err != nil {
		return a.fail(res.Err)
	}
	a.printf("%s %s → %s\n", a.styles.ok.Render("✓"), res.Message, a.client.LandingRoute())
	return nil
}

func runMetrics(ctx context.Context, a *app, fs *pflag.FlagSet, _ []string) error {
	if _, err := a.client.Bootstrap(ctx); err != nil {
		a.logger.Debug("bootstrap failed", slog.String("error", err.Error()))
	}
	exporter := prometheus.NewPrometheusExporter(a.client)

	listen, _ := fs.GetString("listen")
	if listen == "" {
		a.printf("%s", exporter.Render())
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", exporter.Handler())
	server := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	a.logger.Info("serving metrics", slog.String("addr", listen))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
