package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/gophgate/internal/api"
	"github.com/dmitrijs2005/gophgate/internal/common"
)

// fakeGateway accepts only the current access token and reports the
// previous one as expired.
type fakeGateway struct {
	mu        sync.Mutex
	access    string
	refresh   string
	expired   string
	refreshes int
	seen      []string
}

func (f *fakeGateway) check(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	md, _ := metadata.FromIncomingContext(ctx)
	token := ""
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
		token = v[0]
	}
	f.seen = append(f.seen, token)

	switch token {
	case f.access:
		return nil
	case f.expired:
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	default:
		return status.Error(codes.Unauthenticated, common.ErrTokenNotFound.Error())
	}
}

func (f *fakeGateway) stats() (seen []string, refreshes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...), f.refreshes
}

func (f *fakeGateway) Login(_ context.Context, req *api.LoginRequest) (*api.TokenResponse, error) {
	if req.Password != "secret" {
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &api.TokenResponse{AccessToken: f.access, RefreshToken: f.refresh}, nil
}

func (f *fakeGateway) RefreshToken(_ context.Context, req *api.RefreshTokenRequest) (*api.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.RefreshToken != f.refresh {
		return nil, status.Error(codes.NotFound, common.ErrTokenNotFound.Error())
	}
	f.refreshes++
	f.expired = f.access
	f.access = f.access + "+"
	f.refresh = f.refresh + "+"
	return &api.TokenResponse{AccessToken: f.access, RefreshToken: f.refresh}, nil
}

func (f *fakeGateway) Logout(ctx context.Context, _ *api.Empty) (*api.Empty, error) {
	return &api.Empty{}, f.check(ctx)
}

func (f *fakeGateway) LogoutAll(ctx context.Context, _ *api.Empty) (*api.LogoutAllResponse, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	return &api.LogoutAllResponse{Removed: 2}, nil
}

func (f *fakeGateway) UploadAsset(ctx context.Context, req *api.UploadAssetRequest) (*api.AssetResponse, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	return &api.AssetResponse{Asset: &api.FileAsset{ID: "u/1", Filename: req.Filename, URL: "https://s3/u/1"}}, nil
}

func (f *fakeGateway) DeleteAsset(ctx context.Context, req *api.AssetRequest) (*api.Empty, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	if req.ID != "u/1" {
		return nil, status.Error(codes.NotFound, common.ErrAssetNotFound.Error())
	}
	return &api.Empty{}, nil
}

func (f *fakeGateway) GetAsset(ctx context.Context, req *api.AssetRequest) (*api.AssetResponse, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	return &api.AssetResponse{Asset: &api.FileAsset{ID: req.ID, URL: "https://s3/" + req.ID}}, nil
}

func (f *fakeGateway) Ping(context.Context, *api.Empty) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func newTestClient(t *testing.T, gw *fakeGateway) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	api.RegisterGatewayServer(srv, gw)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoginAndCall(t *testing.T) {
	gw := &fakeGateway{access: "a1", refresh: "r1"}
	c := newTestClient(t, gw)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	p, err := c.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, TokenPair{AccessToken: "a1", RefreshToken: "r1"}, p)

	asset, err := c.Upload(ctx, "a.txt", "text/plain", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "u/1", asset.ID)
	seen, _ := gw.stats()
	assert.Equal(t, []string{"a1"}, seen)
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newTestClient(t, &fakeGateway{access: "a1", refresh: "r1"})

	_, err := c.Login(context.Background(), "alice@example.com", "nope")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Tokens().AccessToken)
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	gw := &fakeGateway{access: "a1-server", refresh: "r1", expired: "a1"}
	c := newTestClient(t, gw)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	var saved []TokenPair
	c.OnRefresh(func(p TokenPair) { saved = append(saved, p) })

	asset, err := c.GetAsset(context.Background(), "u/1", "")
	require.NoError(t, err)
	assert.Equal(t, "u/1", asset.ID)

	seen, refreshes := gw.stats()
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, []string{"a1", "a1-server+"}, seen)
	require.Len(t, saved, 1)
	assert.Equal(t, TokenPair{AccessToken: "a1-server+", RefreshToken: "r1+"}, saved[0])
	assert.Equal(t, saved[0], c.Tokens())
}

func TestRevokedTokenIsNotRefreshed(t *testing.T) {
	gw := &fakeGateway{access: "a2", refresh: "r2"}
	c := newTestClient(t, gw)
	c.SetTokens(TokenPair{AccessToken: "revoked", RefreshToken: "r2"})

	_, err := c.GetAsset(context.Background(), "u/1", "")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, refreshes := gw.stats()
	assert.Equal(t, 0, refreshes)
}

func TestRefreshFailureIsReturned(t *testing.T) {
	gw := &fakeGateway{access: "a2", refresh: "r2", expired: "a1"}
	c := newTestClient(t, gw)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r-old"})

	err := c.Delete(context.Background(), "u/1")
	require.ErrorIs(t, err, ErrNotFound)
	_, refreshes := gw.stats()
	assert.Equal(t, 0, refreshes)
}

func TestExplicitRefreshAndLogout(t *testing.T) {
	gw := &fakeGateway{access: "a1", refresh: "r1"}
	c := newTestClient(t, gw)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = c.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	p, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1+", p.AccessToken)

	n, err := c.LogoutAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, TokenPair{}, c.Tokens())
}

func TestDelete_NotFound(t *testing.T) {
	gw := &fakeGateway{access: "a1", refresh: "r1"}
	c := newTestClient(t, gw)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	require.NoError(t, c.Delete(context.Background(), "u/1"))
	require.ErrorIs(t, c.Delete(context.Background(), "u/2"), ErrNotFound)
	require.NoError(t, c.Logout(context.Background()))
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	tests := []struct {
		in   error
		want error
	}{
		{status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{status.Error(codes.NotFound, "x"), ErrNotFound},
		{status.Error(codes.ResourceExhausted, "x"), ErrRateLimited},
		{status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, c.mapError(tt.in), tt.want)
	}

	assert.NoError(t, c.mapError(nil))
	internal := c.mapError(status.Error(codes.Internal, "boom"))
	assert.Contains(t, internal.Error(), "rpc error")
	assert.False(t, errors.Is(internal, ErrUnauthorized))
}
