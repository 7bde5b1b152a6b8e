// Package api holds the wire contract of the gophgate.v1.Gateway gRPC
// service: messages, the JSON codec and the service descriptor shared by
// the server and the client.
package api

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Empty struct{}

type LogoutAllResponse struct {
	Removed int64 `json:"removed"`
}

// FileAsset mirrors the server's asset reference with its signed URLs.
type FileAsset struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	ThumbURL string `json:"thumbUrl,omitempty"`
}

// UploadAssetRequest carries the whole payload; Data is base64 on the wire.
type UploadAssetRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

type AssetRequest struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}

type AssetResponse struct {
	Asset *FileAsset `json:"asset"`
}

type PingResponse struct {
	Status string `json:"status"`
}
