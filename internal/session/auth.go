package session

import (
	"context"
	"errors"
	"strings"
)

var ErrMissingCredentials = errors.New("email and password are required")

type poster interface {
	Post(ctx context.Context, path string, body, out any) error
}

type Authenticator struct {
	API   poster
	Store Store
}

type loginResponse struct {
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Login exchanges credentials for a token and persists it.
func (a *Authenticator) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	var resp loginResponse
	if err := a.API.Post(ctx, "/admin/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp); err != nil {
		return err
	}
	token := resp.Token
	if token == "" {
		token = resp.Data.Token
	}
	if token == "" {
		return errors.New("login response carried no token")
	}
	return a.Store.SetToken(ctx, token)
}

func (a *Authenticator) Logout(ctx context.Context) error {
	return a.Store.Clear(ctx)
}
