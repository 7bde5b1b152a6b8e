package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophgate/internal/common"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodHead && strings.HasSuffix(r.URL.Path, "/missing"):
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodHead && strings.HasSuffix(r.URL.Path, "/broken"):
		w.WriteHeader(http.StatusForbidden)
	case r.Method == http.MethodHead:
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "5")
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func stubAWSConfig(t *testing.T) {
	t.Helper()
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials, RetryMaxAttempts: 1}, nil
	}
}

func newTestStore(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	stubAWSConfig(t)

	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	st, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "assets",
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		BaseEndpoint:    srv.URL,
	})
	require.NoError(t, err)
	return st, fake
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "id", creds.AccessKeyID)
		assert.Equal(t, "secret", creds.SecretAccessKey)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		require.NotNil(t, c)
		return &s3.PresignClient{}
	}

	st, err := NewS3Store(context.Background(), S3Config{
		Bucket: "b", Region: "eu-central-1", AccessKeyID: "id", SecretAccessKey: "secret",
		BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Store(context.Background(), S3Config{})
	require.EqualError(t, err, "load-fail")
}

func TestS3Store_PutDeleteHead(t *testing.T) {
	st, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "u1/obj", []byte("hello"), "image/png"))
	got := fake.last()
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/assets/u1/obj", got.path)
	assert.Equal(t, "image/png", got.contentType)

	meta, err := st.Head(ctx, "u1/obj")
	require.NoError(t, err)
	assert.Equal(t, "u1/obj", meta.Key)
	assert.Equal(t, int64(5), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)

	require.NoError(t, st.Delete(ctx, "u1/obj"))
	assert.Equal(t, http.MethodDelete, fake.last().method)
}

func TestS3Store_HeadMissing(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := st.Head(context.Background(), "u1/missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = st.Head(context.Background(), "u1/broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "head object u1/broken")
}

func TestS3Store_PresignGet(t *testing.T) {
	st, _ := newTestStore(t)

	raw, err := st.PresignGet(context.Background(), "u1/report", "application/pdf", `inline; filename="report.pdf"`, 7*24*time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/assets/u1/report", u.Path)
	assert.Equal(t, "application/pdf", q.Get("response-content-type"))
	assert.Equal(t, `inline; filename="report.pdf"`, q.Get("response-content-disposition"))
	assert.Equal(t, "604800", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
}

func TestS3Store_PresignGetError(t *testing.T) {
	st, _ := newTestStore(t)

	orig := presignGetObject
	t.Cleanup(func() { presignGetObject = orig })
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign-fail")
	}

	_, err := st.PresignGet(context.Background(), "k", "text/csv", "inline", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign-fail")
}
