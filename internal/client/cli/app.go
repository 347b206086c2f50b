// Package cli implements the authkeeper command-line client: sign up, sign
// in, show the profile of the signed-in user and sign out.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/tokenstore"
)

var ErrUnknownCommand = errors.New("unknown command")

// API is implemented by *client.Client.
type API interface {
	Signup(ctx context.Context, req client.SignupRequest) (*client.AuthResponse, error)
	Signin(ctx context.Context, req client.SigninRequest) (*client.AuthResponse, error)
	Profile(ctx context.Context, token string) (*client.ProfileResponse, error)
}

// SessionStore is implemented by *tokenstore.Store.
type SessionStore interface {
	Save(tokenstore.Session) error
	Load() (*tokenstore.Session, error)
	Clear() error
}

type App struct {
	api    API
	store  SessionStore
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(api API, store SessionStore, in io.Reader, out io.Writer) *App {
	return &App{api: api, store: store, reader: bufio.NewReader(in), out: out}
}

// Run executes one command.
func (a *App) Run(ctx context.Context, cmd string) error {
	switch cmd {
	case "signup":
		return a.Signup(ctx)
	case "signin":
		return a.Signin(ctx)
	case "profile":
		return a.Profile(ctx)
	case "logout":
		return a.Logout()
	case "help", "":
		a.Usage()
		return nil
	default:
		a.Usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (a *App) Usage() {
	fmt.Fprintln(a.out, "Usage: authkeeper-client <command> [-u server-url] [-f session-file] [-t timeout] [-c config.json]")
	fmt.Fprintln(a.out, "Commands: signup, signin, profile, logout, help")
}
