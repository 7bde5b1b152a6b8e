package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophgate/internal/api"
	"github.com/dmitrijs2005/gophgate/internal/client/client"
	"github.com/dmitrijs2005/gophgate/internal/client/config"
	"github.com/dmitrijs2005/gophgate/internal/client/session"
)

// Gateway is the part of client.GRPCClient the commands use.
type Gateway interface {
	Login(ctx context.Context, email, password string) (client.TokenPair, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) (int64, error)
	Upload(ctx context.Context, filename, contentType string, data []byte) (*api.FileAsset, error)
	GetAsset(ctx context.Context, id, filename string) (*api.FileAsset, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	SetTokens(p client.TokenPair)
	OnRefresh(fn func(client.TokenPair))
	Close() error
}

type SessionStore interface {
	Load(ctx context.Context) (session.Session, error)
	Save(ctx context.Context, s session.Session) error
	SaveTokens(ctx context.Context, accessToken, refreshToken string) error
	Clear(ctx context.Context) error
	Close() error
}

var ErrUsage = errors.New("usage")

type App struct {
	config   *config.Config
	gateway  Gateway
	sessions SessionStore
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the session database and connects to the gateway.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	store, err := session.Open(ctx, c.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("session init error: %w", err)
	}

	gw, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return newApp(c, gw, store, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, gw Gateway, store SessionStore, in io.Reader, out io.Writer) *App {
	return &App{config: c, gateway: gw, sessions: store, reader: bufio.NewReader(in), out: out}
}

func (a *App) Close() error {
	return errors.Join(a.gateway.Close(), a.sessions.Close())
}

// restore loads the saved session into the gateway client and persists
// every rotation the client performs.
func (a *App) restore(ctx context.Context) (session.Session, error) {
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return session.Session{}, err
	}

	a.gateway.SetTokens(client.TokenPair{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken})
	a.gateway.OnRefresh(func(p client.TokenPair) {
		if err := a.sessions.SaveTokens(context.WithoutCancel(ctx), p.AccessToken, p.RefreshToken); err != nil {
			fmt.Fprintln(a.out, "warning: rotated tokens not saved:", err)
		}
	})
	return sess, nil
}

// Run executes one command. args[0] is the command name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.help()
		return ErrUsage
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	sess, err := a.restore(ctx)
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help":
		a.help()
		return nil
	case "ping":
		return a.ping(ctx)
	case "login":
		return a.login(ctx, rest)
	case "hash-password":
		return a.hashPassword()
	}

	if !sess.LoggedIn() {
		return client.ErrNotLoggedIn
	}

	switch cmd {
	case "logout":
		return a.logout(ctx)
	case "logout-all":
		return a.logoutAll(ctx)
	case "upload":
		return a.upload(ctx, rest)
	case "get":
		return a.get(ctx, rest)
	case "download":
		return a.download(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	default:
		a.help()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Available commands: login, logout, logout-all, upload, get, download, delete, ping, hash-password")
}
