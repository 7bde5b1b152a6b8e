package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/config"
	"github.com/dmitrijs2005/gophgate/internal/server/storage"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.MetricsAddr = "127.0.0.1:0"
	c.DatabaseDriver = config.DriverMemory
	c.SecretKey = "secret"
	c.S3AccessKeyID = "key"
	c.S3SecretAccessKey = "secret"
	c.SweepInterval = time.Hour
	return c
}

func useMemoryStore(t *testing.T) {
	t.Helper()
	orig := newObjectStore
	newObjectStore = func(context.Context, *config.Config) (storage.ObjectStore, error) {
		return storage.NewMemoryStore("assets"), nil
	}
	t.Cleanup(func() { newObjectStore = orig })
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c)
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestNewApp_UnknownDriver(t *testing.T) {
	c := testConfig()
	c.DatabaseDriver = "mysql"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_SeedsUsers(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()

	c := testConfig()
	c.SeedUsers = []string{"alice@example.com:secret", "alice@example.com:other", "bob@example.com:p:w"}

	app, err := NewApp(ctx, c)
	require.NoError(t, err)

	alice, err := app.repos.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, auth.BcryptVerifier{}.Verify("secret", alice.PasswordHash), "first entry wins")

	bob, err := app.repos.Users().GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, auth.BcryptVerifier{}.Verify("p:w", bob.PasswordHash))
}

func TestNewApp_InvalidSeedUser(t *testing.T) {
	c := testConfig()
	c.SeedUsers = []string{"alice@example.com"}

	_, err := NewApp(context.Background(), c)
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	useMemoryStore(t)

	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestApp_RunWithoutMetricsEndpoint(t *testing.T) {
	useMemoryStore(t)

	c := testConfig()
	c.MetricsAddr = ""
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("app stopped without being cancelled")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}
