package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	ct     string
	body   []byte
}

func fakeS3(t *testing.T, status int) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recorded
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			ct:     r.Header.Get("Content-Type"),
			body:   body,
		})
		mu.Unlock()
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func newTestStore(t *testing.T, endpoint string, presign bool) *Store {
	t.Helper()
	s, err := New(context.Background(), Config{
		Bucket:    "photos",
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "admin",
		SecretKey: "secretpassword",
		Presign:   presign,
	})
	require.NoError(t, err)
	return s
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "us-east-1"})
	require.Error(t, err)
}

func TestPut_PutObject(t *testing.T) {
	ts, reqs := fakeS3(t, http.StatusOK)
	s := newTestStore(t, ts.URL, false)
	data := []byte("jpeg bytes")

	err := s.Put(context.Background(), "images/abc", bytes.NewReader(data), int64(len(data)), "image/jpeg")
	require.NoError(t, err)

	got := reqs()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/photos/images/abc", got[0].path)
	assert.Equal(t, "image/jpeg", got[0].ct)
	assert.Equal(t, data, got[0].body)
}

func TestPut_PutObjectError(t *testing.T) {
	ts, _ := fakeS3(t, http.StatusForbidden)
	s := newTestStore(t, ts.URL, false)

	err := s.Put(context.Background(), "images/abc", bytes.NewReader([]byte("x")), 1, "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images/abc")
}

func TestPut_Presigned(t *testing.T) {
	ts, reqs := fakeS3(t, http.StatusOK)
	s := newTestStore(t, ts.URL, true)
	data := []byte("presigned jpeg")

	err := s.Put(context.Background(), "images/def", bytes.NewReader(data), int64(len(data)), "image/jpeg")
	require.NoError(t, err)

	got := reqs()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/photos/images/def", got[0].path)
	assert.Contains(t, got[0].query, "X-Amz-Signature=")
	assert.Equal(t, "image/jpeg", got[0].ct)
	assert.Equal(t, data, got[0].body)
}

func TestPut_PresignedRejected(t *testing.T) {
	ts, _ := fakeS3(t, http.StatusForbidden)
	s := newTestStore(t, ts.URL, true)

	err := s.Put(context.Background(), "images/def", bytes.NewReader([]byte("x")), 1, "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestNew_AppliesRegionAndEndpoint(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	_, err := New(context.Background(), Config{
		Bucket:    "photos",
		Region:    "eu-west-1",
		Endpoint:  "http://minio:9000",
		AccessKey: "a",
		SecretKey: "b",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, aws.RequestChecksumCalculationWhenRequired, opts.RequestChecksumCalculation)
}

func TestNew_LoadConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, err := New(context.Background(), Config{Bucket: "photos"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPresignedPutURL_ErrorAndTTL(t *testing.T) {
	ts, _ := fakeS3(t, http.StatusOK)
	s := newTestStore(t, ts.URL, false)
	s.ttl = 5 * time.Minute

	origPresign := presignPutObject
	t.Cleanup(func() { presignPutObject = origPresign })

	var gotTTL time.Duration
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		gotTTL = po.Expires
		assert.Equal(t, "photos", aws.ToString(in.Bucket))
		assert.Equal(t, "images/k", aws.ToString(in.Key))
		return nil, errors.New("presign failed")
	}

	_, err := s.PresignedPutURL(context.Background(), "images/k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presign failed")
	assert.Equal(t, 5*time.Minute, gotTTL)
}
