package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/services"
)

type fakeAuth struct {
	regUser, regEmail string
	regPass           []byte
	regErr            error

	loginEmail string
	loginPass  []byte
	loginErr   error

	refreshErr error
	logoutErr  error
	meErr      error
	pingErr    error

	user *client.User
}

func (f *fakeAuth) Register(_ context.Context, username, email string, password []byte) (*client.User, error) {
	f.regUser, f.regEmail, f.regPass = username, email, append([]byte(nil), password...)
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &client.User{ID: "u-1", Username: username, Email: email}, nil
}

func (f *fakeAuth) Login(_ context.Context, email string, password []byte) (*client.User, error) {
	f.loginEmail, f.loginPass = email, append([]byte(nil), password...)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.user = &client.User{ID: "u-1", Username: "Alice", Email: email}
	return f.user, nil
}

func (f *fakeAuth) Refresh(context.Context) (time.Time, error) {
	if f.refreshErr != nil {
		return time.Time{}, f.refreshErr
	}
	return time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), nil
}

func (f *fakeAuth) Logout(context.Context) (int64, error) {
	f.user = nil
	if f.logoutErr != nil {
		return 0, f.logoutErr
	}
	return 2, nil
}

func (f *fakeAuth) Me(context.Context) (*client.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	if f.user == nil {
		return nil, services.ErrNotLoggedIn
	}
	return f.user, nil
}

func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

func (f *fakeAuth) CurrentUser() *client.User { return f.user }

func newTestApp(f *fakeAuth, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		config:      &config.Config{OnlineCheckInterval: time.Hour},
		authService: f,
		reader:      bufio.NewReader(strings.NewReader(input)),
		out:         &out,
	}, &out
}

func stubInputs(t *testing.T, answers []string, password []byte) {
	t.Helper()
	origST, origGP, origNP := getSimpleText, getPassword, getNewPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		i++
		return answers[i-1], nil
	}
	getPassword = func(io.Writer, string) ([]byte, error) { return append([]byte(nil), password...), nil }
	getNewPassword = func(io.Writer) ([]byte, error) { return append([]byte(nil), password...), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
		getNewPassword = origNP
	})
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}
