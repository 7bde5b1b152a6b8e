package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/gophgate/internal/api"
	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

type handler struct {
	server *GRPCServer
}

// toStatus maps service errors to gRPC codes. Unauthorized kinds keep their
// message so the client can tell an expired token from other failures.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func tokenResponse(p *models.TokenPair) *api.TokenResponse {
	return &api.TokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func assetResponse(a *models.FileAsset) *api.AssetResponse {
	return &api.AssetResponse{Asset: &api.FileAsset{ID: a.ID, Filename: a.Filename, URL: a.URL, ThumbURL: a.ThumbURL}}
}

// ownAsset reports whether id lives under the user's scope.
func ownAsset(userID, id string) bool {
	return strings.HasPrefix(id, userID+"/")
}

func (h *handler) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenResponse, error) {
	pair, err := h.server.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	h.server.logger.Info(ctx, "Logged in", "email", req.Email)
	return tokenResponse(pair), nil
}

func (h *handler) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}
	pair, err := h.server.users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenResponse(pair), nil
}

func (h *handler) Logout(ctx context.Context, _ *api.Empty) (*api.Empty, error) {
	userID, _ := UserIDFromContext(ctx)
	if err := h.server.users.Logout(ctx, userID, accessTokenFromContext(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &api.Empty{}, nil
}

func (h *handler) LogoutAll(ctx context.Context, _ *api.Empty) (*api.LogoutAllResponse, error) {
	userID, _ := UserIDFromContext(ctx)
	n, err := h.server.users.LogoutAll(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.LogoutAllResponse{Removed: n}, nil
}

func (h *handler) UploadAsset(ctx context.Context, req *api.UploadAssetRequest) (*api.AssetResponse, error) {
	if len(req.Data) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty upload")
	}
	userID, _ := UserIDFromContext(ctx)

	key, err := h.server.assets.Upload(ctx, req.Data, req.ContentType, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	asset, err := h.server.assets.Get(ctx, key, req.Filename)
	if err != nil {
		return nil, toStatus(err)
	}
	return assetResponse(asset), nil
}

func (h *handler) DeleteAsset(ctx context.Context, req *api.AssetRequest) (*api.Empty, error) {
	userID, _ := UserIDFromContext(ctx)
	if !ownAsset(userID, req.ID) {
		return nil, toStatus(common.ErrAssetNotFound)
	}
	if err := h.server.assets.Delete(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &api.Empty{}, nil
}

func (h *handler) GetAsset(ctx context.Context, req *api.AssetRequest) (*api.AssetResponse, error) {
	userID, _ := UserIDFromContext(ctx)
	if !ownAsset(userID, req.ID) {
		return nil, toStatus(common.ErrAssetNotFound)
	}
	asset, err := h.server.assets.Get(ctx, req.ID, req.Filename)
	if err != nil {
		return nil, toStatus(err)
	}
	return assetResponse(asset), nil
}

func (h *handler) Ping(context.Context, *api.Empty) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}
