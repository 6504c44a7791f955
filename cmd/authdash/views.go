package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/guard"
	"github.com/MrEthical07/goAuthClient/jwt"
)

const memberSinceLayout = "January 2, 2006"

type app struct {
	client *goAuthClient.Client
	guard  *guard.Guard
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "dashboard":
		return a.guarded(ctx, args, a.dashboard)
	case "profile":
		return a.guarded(ctx, args, a.profile)
	case "admin":
		return a.guarded(ctx, args, a.admin)
	case "whoami":
		return a.guarded(ctx, args, a.whoami)
	case "status":
		return a.status(ctx)
	case "logout":
		return a.logout(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) guarded(ctx context.Context, args []string, view guard.View) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, args)
	}
	return a.guard.Protect(view)(ctx, nil)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: login: %v", errUsage, err)
	}
	if strings.TrimSpace(*username) == "" {
		return fmt.Errorf("%w: login requires -u USER", errUsage)
	}
	pass, err := a.password(*password)
	if err != nil {
		return err
	}

	res, err := a.client.Login(ctx, *username, pass)
	if err != nil {
		return err
	}
	if err := a.client.EstablishSession(ctx, res.AccessToken); err != nil {
		return err
	}

	name := *username
	if res.User != nil && res.User.Username != "" {
		name = res.User.Username
	}
	fmt.Fprintf(a.stdout, "Logged in as %s.\n", name)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: register: %v", errUsage, err)
	}
	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" {
		return fmt.Errorf("%w: register requires -u USER and -e EMAIL", errUsage)
	}
	pass, err := a.password(*password)
	if err != nil {
		return err
	}

	if err := a.client.Register(ctx, *username, *email, pass); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Registration successful. Please log in with your username and password.")
	return nil
}

// password returns flagValue or the first line of stdin.
func (a *app) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(a.stderr, "Password: ")
	sc := bufio.NewScanner(a.stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", fmt.Errorf("%w: no password given", errUsage)
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}

func (a *app) dashboard(ctx context.Context, _ *goAuthClient.UserProfile) error {
	var (
		wg       sync.WaitGroup
		user     *goAuthClient.UserProfile
		userErr  error
		stats    *goAuthClient.DashboardStats
		statsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = a.client.GetCurrentUser(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = a.client.GetDashboardStats(ctx)
	}()
	wg.Wait()

	if userErr != nil {
		fmt.Fprintf(a.stdout, "Failed to load user: %s\n", goAuthClient.ErrorMessage(userErr))
	} else {
		a.welcomeCard(user)
	}
	if statsErr != nil {
		fmt.Fprintf(a.stdout, "Failed to load stats: %s\n", goAuthClient.ErrorMessage(statsErr))
	} else {
		fmt.Fprintf(a.stdout, "Total users:  %d\nActive users: %d\n", stats.TotalUsers, stats.ActiveUsers)
	}

	if userErr != nil || statsErr != nil {
		return errors.Join(errShown, userErr, statsErr)
	}
	return nil
}

func (a *app) welcomeCard(user *goAuthClient.UserProfile) {
	fmt.Fprintf(a.stdout, "Welcome, %s!\n", user.Username)
	fmt.Fprintf(a.stdout, "Email:        %s\n", user.Email)
	fmt.Fprintf(a.stdout, "Member since: %s\n", memberSince(user))
}

func memberSince(user *goAuthClient.UserProfile) string {
	if t, ok := user.MemberSince(); ok {
		return t.Format(memberSinceLayout)
	}
	if user.CreatedAt != "" {
		return user.CreatedAt
	}
	return "unknown"
}

func (a *app) profile(ctx context.Context, _ *goAuthClient.UserProfile) error {
	p, err := a.client.GetProfile(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", p.Profile.Username)
	fmt.Fprintf(w, "Email:\t%s\n", p.Profile.Email)
	fmt.Fprintf(w, "Member since:\t%s\n", memberSince(p.Profile))
	fmt.Fprintf(w, "Account age:\t%d days\n", p.Stats.AccountAgeDays)
	fmt.Fprintf(w, "Active:\t%t\n", p.Stats.IsActive)
	return w.Flush()
}

func (a *app) admin(ctx context.Context, _ *goAuthClient.UserProfile) error {
	panel, err := a.client.GetAdminPanel(ctx)
	if errors.Is(err, goAuthClient.ErrForbidden) {
		fmt.Fprintf(a.stdout, "Admin access denied: %s\n", goAuthClient.ErrorMessage(err))
		return errors.Join(errShown, err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, panel.Message)
	fmt.Fprintf(a.stdout, "Total users: %d\n", panel.TotalUsers)
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tMEMBER SINCE")
	for _, u := range panel.Users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, memberSince(u))
	}
	return w.Flush()
}

func (a *app) whoami(_ context.Context, user *goAuthClient.UserProfile) error {
	if user == nil {
		fmt.Fprintln(a.stdout, "API unreachable; session not verified.")
		return nil
	}
	fmt.Fprintf(a.stdout, "%s <%s>\n", user.Username, user.Email)
	return nil
}

// status reports the stored token without contacting the API.
func (a *app) status(ctx context.Context) error {
	token, ok, err := a.client.SessionStore().Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "API:     %s\n", a.client.Origin())
	if !ok || token == "" {
		fmt.Fprintln(a.stdout, "Session: none")
		return nil
	}

	info, err := jwt.Inspect(token)
	if err != nil {
		fmt.Fprintln(a.stdout, "Session: stored (opaque token)")
		return nil
	}
	w := tabwriter.NewWriter(a.stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintln(w, "Session:\tstored (unverified)")
	if info.Username != "" {
		fmt.Fprintf(w, "User:\t%s\n", info.Username)
	}
	fmt.Fprintf(w, "Subject:\t%s\n", info.Subject)
	fmt.Fprintf(w, "Algorithm:\t%s\n", info.Algorithm)
	if !info.IssuedAt.IsZero() {
		fmt.Fprintf(w, "Issued:\t%s\n", info.IssuedAt.UTC().Format(time.RFC3339))
	}
	if !info.ExpiresAt.IsZero() {
		state := "valid"
		if info.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(w, "Expires:\t%s (%s)\n", info.ExpiresAt.UTC().Format(time.RFC3339), state)
	}
	return w.Flush()
}

func (a *app) logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out.")
	return nil
}
