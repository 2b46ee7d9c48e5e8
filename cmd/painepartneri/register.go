package main

import (
	"context"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/otp"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func runRegister(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := requireArgs("register", "<email>", args, 1); err != nil {
		return err
	}
	passwordFile, _ := fs.GetString("password-file")
	code, _ := fs.GetString("otp")

	password, err := a.readPassword("Salasana / Password: ", passwordFile)
	if err != nil {
		return err
	}

	reg := a.client.NewRegistration()
	if _, err := reg.Submit(ctx, args[0], password); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", reg.Message())

	switch {
	case code != "":
		return a.verify(ctx, reg, code)
	case a.interactive():
		return a.promptCode(ctx, reg)
	default:
		a.printf("painepartneri verify %s <code>\n", reg.Email())
		return nil
	}
}

func runVerify(ctx context.Context, a *app, _ *pflag.FlagSet, args []string) error {
	if err := requireArgs("verify", "<email> <code>", args, 2); err != nil {
		return err
	}
	return a.verify(ctx, a.client.ResumeRegistration(args[0]), args[1])
}

func runResend(ctx context.Context, a *app, _ *pflag.FlagSet, args []string) error {
	if err := requireArgs("resend", "<email>", args, 1); err != nil {
		return err
	}
	reg := a.client.ResumeRegistration(args[0])
	if _, err := reg.Resend(ctx); err != nil {
		return a.fail(err)
	}
	a.printf("%s\n", reg.Message())
	return nil
}

func (a *app) verify(ctx context.Context, reg *goAuthClient.Registration, code string) error {
	if _, err := reg.SubmitOTP(ctx, code); err != nil {
		return a.fail(err)
	}
	a.printVerified(reg)
	return nil
}

func (a *app) printVerified(reg *goAuthClient.Registration) {
	a.printf("%s\n", a.styles.ok.Render(reg.Message()))
	a.printf("%s %s\n", a.styles.label.Render("next:"), reg.NextRoute())
}

// promptCode runs the OTP widget until the code is accepted or the user
// cancels.
func (a *app) promptCode(ctx context.Context, reg *goAuthClient.Registration) error {
	model := registrationModel{
		ctx: ctx,
		reg: reg,
		otp: otp.New("Sähköpostivarmistus", "Anna nelinumeroinen varmistuskoodi, joka lähetettiin osoitteeseen "+reg.Email()),
	}

	final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(a.in), tea.WithOutput(a.out)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(registrationModel); ok && m.otp.Cancelled() {
		a.printf("painepartneri verify %s <code>\n", reg.Email())
		return nil
	}
	if reg.Phase() == goAuthClient.PhaseVerified {
		a.printVerified(reg)
	}
	return nil
}

// registrationModel runs registration steps for the OTP widget's messages.
type registrationModel struct {
	ctx context.Context
	reg *goAuthClient.Registration
	otp otp.Model
}

func (m registrationModel) Init() tea.Cmd { return m.otp.Init() }

func (m registrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case otp.SubmitMsg:
		return m, m.step(func() (goAuthClient.Phase, error) {
			return m.reg.SubmitOTP(m.ctx, msg.Code)
		})
	case otp.ResendMsg:
		return m, m.step(func() (goAuthClient.Phase, error) {
			return m.reg.Resend(m.ctx)
		})
	}

	next, cmd := m.otp.Update(msg)
	m.otp = next.(otp.Model)
	return m, cmd
}

func (m registrationModel) step(run func() (goAuthClient.Phase, error)) tea.Cmd {
	return func() tea.Msg {
		phase, err := run()
		return otp.ResultMsg{
			Message: m.reg.Message(),
			Failed:  err != nil,
			Done:    phase == goAuthClient.PhaseVerified,
		}
	}
}

func (m registrationModel) View() string {
	// The verified message is printed after the program exits.
	if m.otp.Done() {
		return ""
	}
	return m.otp.View()
}
