package services

import (
	"context"
	"errors"
	"mime"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/imagex"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/mimex"
	"github.com/dmitrijs2005/gophgate/internal/server/metrics"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/storage"
)

const (
	// ThumbnailThreshold is the payload size above which images are downscaled.
	ThumbnailThreshold = 250_000
	// ThumbnailPercent is the downscale factor applied to both dimensions.
	ThumbnailPercent = 10

	expirableURLTTL = 7 * 24 * time.Hour
	signConcurrency = 16
)

// AssetService uploads and deletes blobs and attaches presigned read URLs
// to response payloads.
type AssetService struct {
	store       storage.ObjectStore
	signExpires time.Duration
	metrics     *metrics.Metrics
	logger      logging.Logger
	newID       func() string
	thumbnail   func(data []byte, percent int) ([]byte, error)
}

// NewAssetService returns a service using signExpires as the lifetime of
// non-expirable URLs.
func NewAssetService(store storage.ObjectStore, signExpires time.Duration, m *metrics.Metrics, logger logging.Logger) *AssetService {
	return &AssetService{
		store:       store,
		signExpires: signExpires,
		metrics:     m,
		logger:      logger.With("module", "assets"),
		newID:       func() string { return ulid.Make().String() },
		thumbnail:   imagex.Thumbnail,
	}
}

func assetKey(ownerScope, id string) string {
	if ownerScope == "" {
		return id
	}
	return ownerScope + "/" + id
}

func thumbnailKey(assetID string) string {
	return assetID + common.ThumbnailSuffix
}

// Upload stores data under {ownerScope}/{id} and returns that key. Images
// also get a {key}-thumbnail object, written first: a copy of data for small
// payloads, a downscaled version above ThumbnailThreshold. A thumbnail that
// cannot be decoded falls back to the original bytes.
func (s *AssetService) Upload(ctx context.Context, data []byte, mimeType, ownerScope string) (key string, err error) {
	ctx, span := tracer().Start(ctx, "AssetService.Upload")
	defer func() { endSpan(span, err) }()

	key = assetKey(ownerScope, s.newID())
	span.SetAttributes(attribute.String("asset.key", key), attribute.Int("asset.size", len(data)))

	contentType := mimeType
	if contentType == "" {
		contentType = mimex.DefaultContentType
	}

	kind := "file"
	if mimex.IsImage(mimeType) {
		kind = "image"
		thumb := data
		if len(data) > ThumbnailThreshold {
			scaled, err := s.thumbnail(data, ThumbnailPercent)
			if err != nil {
				s.logger.Warn(ctx, "thumbnail fallback to original", "key", key, "error", err)
				s.metrics.ThumbnailFallback()
			} else {
				thumb = scaled
			}
		}
		if err := s.store.Put(ctx, thumbnailKey(key), thumb, contentType); err != nil {
			return "", infraError(ctx, s.logger, "put thumbnail", err, "key", thumbnailKey(key))
		}
	}

	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return "", infraError(ctx, s.logger, "put object", err, "key", key)
	}

	s.metrics.AssetUploaded(kind)
	return key, nil
}

// Head returns the stored metadata of assetID or ErrAssetNotFound.
func (s *AssetService) Head(ctx context.Context, assetID string) (*storage.ObjectMeta, error) {
	meta, err := s.store.Head(ctx, assetID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAssetNotFound
		}
		return nil, infraError(ctx, s.logger, "head object", err, "key", assetID)
	}
	return meta, nil
}

// Delete removes assetID and its thumbnail. A missing thumbnail is fine,
// a missing original is ErrAssetNotFound.
func (s *AssetService) Delete(ctx context.Context, assetID string) (err error) {
	ctx, span := tracer().Start(ctx, "AssetService.Delete")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("asset.key", assetID))

	if _, err := s.Head(ctx, assetID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, assetID); err != nil {
		return infraError(ctx, s.logger, "delete object", err, "key", assetID)
	}
	if err := s.store.Delete(ctx, thumbnailKey(assetID)); err != nil {
		return infraError(ctx, s.logger, "delete thumbnail", err, "key", thumbnailKey(assetID))
	}
	return nil
}

// Get checks that assetID exists and returns it with signed URLs.
func (s *AssetService) Get(ctx context.Context, assetID, filename string) (*models.FileAsset, error) {
	if _, err := s.Head(ctx, assetID); err != nil {
		return nil, err
	}
	asset := &models.FileAsset{ID: assetID, Filename: filename}
	if err := s.Sign(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// PresignedURL returns a read-only URL for assetID. The response content
// type follows filename's extension and the disposition is inline. The URL
// lives one week when expirable, otherwise the configured short lifetime.
func (s *AssetService) PresignedURL(ctx context.Context, assetID, filename string, expirable bool) (string, error) {
	ttl := s.signExpires
	if expirable {
		ttl = expirableURLTTL
	}

	url, err := s.store.PresignGet(ctx, assetID, mimex.ContentTypeByFilename(filename), contentDisposition(filename), ttl)
	if err != nil {
		return "", infraError(ctx, s.logger, "presign get", err, "key", assetID)
	}

	s.metrics.PresignedURL()
	return url, nil
}

func contentDisposition(filename string) string {
	if filename == "" {
		return "inline"
	}
	if v := mime.FormatMediaType("inline", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "inline"
}

// Sign walks payloads and their nested children and sets URL and ThumbURL
// on every asset reference with a non-empty ID. References without an ID
// are left untouched. Thumbnails are signed without a filename. URLs are computed in parallel; collection order is
// not changed.
func (s *AssetService) Sign(ctx context.Context, payloads ...models.Signable) (err error) {
	ctx, span := tracer().Start(ctx, "AssetService.Sign")
	defer func() { endSpan(span, err) }()

	assets := collectAssets(payloads)
	span.SetAttributes(attribute.Int("asset.count", len(assets)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)

	for _, a := range assets {
		g.Go(func() error {
			url, err := s.PresignedURL(ctx, a.ID, a.Filename, true)
			if err != nil {
				return err
			}
			thumbURL, err := s.PresignedURL(ctx, thumbnailKey(a.ID), "", true)
			if err != nil {
				return err
			}
			a.URL = url
			a.ThumbURL = thumbURL
			return nil
		})
	}

	return g.Wait()
}

// collectAssets returns each signable reference once, depth first.
func collectAssets(payloads []models.Signable) []*models.FileAsset {
	seen := make(map[*models.FileAsset]struct{})
	var out []*models.FileAsset

	var walk func(models.Signable)
	walk = func(v models.Signable) {
		if v == nil {
			return
		}
		for _, a := range v.SignableAssets() {
			if a == nil || a.ID == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
		for _, child := range v.SignableChildren() {
			walk(child)
		}
	}

	for _, p := range payloads {
		walk(p)
	}
	return out
}
