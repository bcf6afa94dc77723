package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/services"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Prompt seams, swapped in tests.
var (
	getSimpleText  = GetSimpleText
	getPassword    = GetPassword
	getNewPassword = GetNewPassword
)

// Register prompts for username, email and password and creates an account.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getNewPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "Registration aborted: %v\n", err)
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Register(ctx, username, email, password)
	if err != nil {
		a.report("Registration failed", err)
		return err
	}

	fmt.Fprintf(a.out, "Registered %s <%s>\n", u.Username, u.Email)
	return nil
}

// Login prompts for email and password and starts a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, password)
	if err != nil {
		a.report("Login failed", err)
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", u.Username)
	return nil
}

// Refresh mints a new access token from the stored refresh token.
func (a *App) Refresh(ctx context.Context) error {
	exp, err := a.authService.Refresh(ctx)
	if err != nil {
		a.report("Refresh failed", err)
		return err
	}
	fmt.Fprintf(a.out, "Access token refreshed, valid until %s\n", exp.Local().Format(time.RFC1123))
	return nil
}

// Logout revokes every active token of the user on the server.
func (a *App) Logout(ctx context.Context) error {
	n, err := a.authService.Logout(ctx)
	if err != nil {
		a.report("Logout failed", err)
		return err
	}
	fmt.Fprintf(a.out, "Logged out, %d token(s) revoked\n", n)
	return nil
}

// Me prints the profile of the current user.
func (a *App) Me(ctx context.Context) error {
	u, err := a.authService.Me(ctx)
	if err != nil {
		a.report("Request failed", err)
		return err
	}
	fmt.Fprintf(a.out, "id:       %s\nusername: %s\nemail:    %s\n", u.ID, u.Username, u.Email)
	return nil
}

// Status prints the login state and server reachability.
func (a *App) Status(ctx context.Context) error {
	who := "not logged in"
	if u := a.authService.CurrentUser(); u != nil {
		who = "logged in as " + u.Email
	}
	mode := a.Mode()
	if mode == "" {
		mode = "unknown"
	}
	fmt.Fprintf(a.out, "%s, server %s\n", who, mode)
	return nil
}

func (a *App) report(prefix string, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, services.ErrNotLoggedIn):
		fmt.Fprintf(a.out, "%s: you are not logged in\n", prefix)
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
		fmt.Fprintf(a.out, "%s: server unavailable\n", prefix)
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintf(a.out, "%s: unauthorized\n", prefix)
	case errors.Is(err, client.ErrConflict):
		fmt.Fprintf(a.out, "%s: user already exists\n", prefix)
	case errors.Is(err, client.ErrNoSession):
		fmt.Fprintf(a.out, "%s: no active session\n", prefix)
	case errors.As(err, &apiErr) && len(apiErr.Fields) > 0:
		fmt.Fprintf(a.out, "%s: %s\n", prefix, apiErr.Message)
		for _, k := range sortedKeys(apiErr.Fields) {
			fmt.Fprintf(a.out, "  %s: %s\n", k, apiErr.Fields[k])
		}
	default:
		fmt.Fprintf(a.out, "%s: %v\n", prefix, err)
	}
}
