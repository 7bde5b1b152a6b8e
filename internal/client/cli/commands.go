package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/gophgate/internal/api"
	"github.com/dmitrijs2005/gophgate/internal/client/session"
	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/filex"
	"github.com/dmitrijs2005/gophgate/internal/mimex"
	"github.com/dmitrijs2005/gophgate/internal/netx"
)

// getSimpleText, getPassword, readFile, writeFile and fetchURL are
// indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	readFile      = os.ReadFile
	writeFile     = filex.WriteFileAtomic
	fetchURL      = netx.Download
)

func (a *App) ping(ctx context.Context) error {
	if err := a.gateway.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pair, err := a.gateway.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	if err := a.sessions.Save(ctx, session.Session{
		Email:        email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Fprintln(a.out, "Logged in as", email)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.gateway.Logout(ctx); err != nil {
		return err
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) logoutAll(ctx context.Context) error {
	n, err := a.gateway.LogoutAll(ctx)
	if err != nil {
		return err
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Revoked %d tokens\n", n)
	return nil
}

func (a *App) printAsset(asset *api.FileAsset) {
	fmt.Fprintln(a.out, "id:   ", asset.ID)
	fmt.Fprintln(a.out, "url:  ", asset.URL)
	fmt.Fprintln(a.out, "thumb:", asset.ThumbURL)
}

func (a *App) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: upload <path>", ErrUsage)
	}
	path := args[0]

	data, err := readFile(path)
	if err != nil {
		return err
	}

	filename := filepath.Base(path)
	asset, err := a.gateway.Upload(ctx, filename, mimex.ContentTypeByFilename(filename), data)
	if err != nil {
		return err
	}
	a.printAsset(asset)
	return nil
}

func (a *App) get(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: get <id> [filename]", ErrUsage)
	}
	filename := ""
	if len(args) == 2 {
		filename = args[1]
	}

	asset, err := a.gateway.GetAsset(ctx, args[0], filename)
	if err != nil {
		return err
	}
	a.printAsset(asset)
	return nil
}

func (a *App) download(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: download <id> <dest>", ErrUsage)
	}
	id, dest := args[0], args[1]

	asset, err := a.gateway.GetAsset(ctx, id, filepath.Base(dest))
	if err != nil {
		return err
	}

	data, err := fetchURL(ctx, asset.URL)
	if err != nil {
		return err
	}

	if err := writeFile(dest, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", dest, len(data))
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <id>", ErrUsage)
	}
	if err := a.gateway.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted", args[0])
	return nil
}

func (a *App) hashPassword() error {
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(hash))
	return nil
}
