package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/tokenstore"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func (a *App) Signup(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword(a.reader, "Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	resp, err := a.api.Signup(ctx, client.SignupRequest{
		Name:            name,
		Email:           email,
		Password:        string(password),
		ConfirmPassword: string(confirm),
	})
	if err != nil {
		return err
	}

	if err := a.saveSession(resp); err != nil {
		return err
	}

	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *App) Signin(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.api.Signin(ctx, client.SigninRequest{Email: email, Password: string(password)})
	if err != nil {
		return err
	}

	if err := a.saveSession(resp); err != nil {
		return err
	}

	fmt.Fprintln(a.out, resp.Message)
	return nil
}

// Profile shows the signed-in user. A rejected token is dropped so the next
// command starts from a clean sign-in.
func (a *App) Profile(ctx context.Context) error {
	sess, err := a.store.Load()
	if err != nil {
		if errors.Is(err, tokenstore.ErrNoSession) {
			return fmt.Errorf("%w: run 'signin' first", err)
		}
		return err
	}

	resp, err := a.api.Profile(ctx, sess.Token)
	if err != nil {
		if client.IsUnauthorized(err) {
			_ = a.store.Clear()
			return fmt.Errorf("session rejected (%v): run 'signin' again", err)
		}
		return err
	}

	fmt.Fprintln(a.out, resp.Message)
	fmt.Fprintf(a.out, "Name:  %s\n", resp.User.Name)
	fmt.Fprintf(a.out, "Email: %s\n", resp.User.Email)
	return nil
}

func (a *App) Logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) saveSession(resp *client.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("server returned no token")
	}
	return a.store.Save(tokenstore.Session{Token: resp.Token, User: resp.User})
}
