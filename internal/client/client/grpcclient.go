package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophgate/internal/api"
	"github.com/dmitrijs2005/gophgate/internal/common"
)

// TokenPair is the client's view of a login session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *api.GatewayClient

	mu        sync.Mutex
	tokens    TokenPair
	onRefresh func(TokenPair)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == api.MethodLogin || method == api.MethodRefreshToken || method == api.MethodPing {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	sent := s.Tokens()
	err := invoker(withAccessToken(ctx, sent.AccessToken), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) || sent.RefreshToken == "" {
		return err
	}

	fresh, err := s.refresh(ctx, sent)
	if err != nil {
		return err
	}

	return invoker(withAccessToken(ctx, fresh.AccessToken), method, req, reply, cc, opts...)
}

// refresh rotates the pair unless another call already did so since sent
// was read.
func (s *GRPCClient) refresh(ctx context.Context, sent TokenPair) (TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens.AccessToken != sent.AccessToken {
		return s.tokens, nil
	}

	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: s.tokens.RefreshToken})
	if err != nil {
		return TokenPair{}, err
	}

	s.tokens = TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if s.onRefresh != nil {
		s.onRefresh(s.tokens)
	}
	return s.tokens, nil
}

// NewGRPCClient connects to endpointURL. Extra dial options are appended to
// the defaults (insecure transport, JSON codec, token interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewGatewayClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// SetTokens restores a previously saved pair.
func (s *GRPCClient) SetTokens(p TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = p
}

func (s *GRPCClient) Tokens() TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// OnRefresh registers fn to be called with every rotated pair.
func (s *GRPCClient) OnRefresh(fn func(TokenPair)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (TokenPair, error) {
	resp, err := s.client.Login(ctx, &api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return TokenPair{}, s.mapError(err)
	}

	p := TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	s.SetTokens(p)
	return p, nil
}

// Refresh rotates the current pair explicitly.
func (s *GRPCClient) Refresh(ctx context.Context) (TokenPair, error) {
	current := s.Tokens()
	if current.RefreshToken == "" {
		return TokenPair{}, ErrNotLoggedIn
	}
	p, err := s.refresh(ctx, current)
	if err != nil {
		return TokenPair{}, s.mapError(err)
	}
	return p, nil
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	if _, err := s.client.Logout(ctx, &api.Empty{}); err != nil {
		return s.mapError(err)
	}
	s.SetTokens(TokenPair{})
	return nil
}

func (s *GRPCClient) LogoutAll(ctx context.Context) (int64, error) {
	resp, err := s.client.LogoutAll(ctx, &api.Empty{})
	if err != nil {
		return 0, s.mapError(err)
	}
	s.SetTokens(TokenPair{})
	return resp.Removed, nil
}

func (s *GRPCClient) Upload(ctx context.Context, filename, contentType string, data []byte) (*api.FileAsset, error) {
	resp, err := s.client.UploadAsset(ctx, &api.UploadAssetRequest{Filename: filename, ContentType: contentType, Data: data})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Asset, nil
}

func (s *GRPCClient) GetAsset(ctx context.Context, id, filename string) (*api.FileAsset, error) {
	resp, err := s.client.GetAsset(ctx, &api.AssetRequest{ID: id, Filename: filename})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Asset, nil
}

func (s *GRPCClient) Delete(ctx context.Context, id string) error {
	if _, err := s.client.DeleteAsset(ctx, &api.AssetRequest{ID: id}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.Empty{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
