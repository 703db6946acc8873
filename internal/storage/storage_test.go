package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func upload(name string, data []byte) Upload {
	return Upload{Filename: name, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/public/uploads/", discard)
	ctx := context.Background()

	url, err := store.Save(ctx, "products", upload("Lamp.PNG", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/public/uploads/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := filepath.Join(root, "products", filepath.Base(url))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(saved))

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete(ctx, url), "deleting twice is fine")
	require.NoError(t, store.Delete(ctx, ""))
}

func TestLocalDeleteRefusesEscapes(t *testing.T) {
	store := NewLocal(t.TempDir(), "/public/uploads", discard)
	ctx := context.Background()

	assert.Error(t, store.Delete(ctx, "/etc/passwd"))
	assert.Error(t, store.Delete(ctx, "/public/uploads/"))
}

func TestLocalFolderCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/u", discard)

	url, err := store.Save(context.Background(), "../../etc", upload("a.jpg", []byte("x")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/u/etc/"))
	_, err = os.Stat(filepath.Join(root, "etc", filepath.Base(url)))
	assert.NoError(t, err)
}

func TestSaveRejectsBadUploads(t *testing.T) {
	store := NewLocal(t.TempDir(), "/u", discard)
	big := make([]byte, MaxImageSize+1)

	tests := []struct {
		name   string
		upload Upload
	}{
		{"no extension", upload("image", []byte("x"))},
		{"unsupported type", upload("doc.pdf", []byte("x"))},
		{"declared too large", Upload{Filename: "a.png", Size: MaxImageSize + 1, Body: bytes.NewReader([]byte("x"))}},
		{"actual too large", Upload{Filename: "a.png", Size: 10, Body: bytes.NewReader(big)}},
		{"empty", upload("a.png", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(context.Background(), "products", tt.upload)
			assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
		})
	}
}

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3SaveAndDelete(t *testing.T) {
	client := &fakeS3{}
	store := newS3(client, S3Config{Bucket: "shop", Region: "ap-south-1", Prefix: "/media/"}, discard)
	ctx := context.Background()

	url, err := store.Save(ctx, "categories", upload("banner.webp", []byte("webp")))
	require.NoError(t, err)
	require.NotNil(t, client.put)
	assert.Equal(t, "shop", aws.ToString(client.put.Bucket))
	assert.Equal(t, "image/webp", aws.ToString(client.put.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(client.put.ContentLength))
	assert.Equal(t, "webp", string(client.body))

	key := aws.ToString(client.put.Key)
	assert.True(t, strings.HasPrefix(key, "media/categories/"))
	assert.Equal(t, "https://shop.s3.ap-south-1.amazonaws.com/"+key, url)

	require.NoError(t, store.Delete(ctx, url))
	assert.Equal(t, []string{key}, client.deleted)

	assert.Error(t, store.Delete(ctx, "https://elsewhere.example.com/x.png"))
}

func TestS3CustomEndpoint(t *testing.T) {
	store := newS3(&fakeS3{}, S3Config{Bucket: "shop", Endpoint: "http://localhost:9000/"}, discard)

	url, err := store.Save(context.Background(), "", upload("a.jpg", []byte("x")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/shop/"))
}

func TestS3PutFailure(t *testing.T) {
	store := newS3(&fakeS3{putErr: errors.New("boom")}, S3Config{Bucket: "shop"}, discard)

	_, err := store.Save(context.Background(), "products", upload("a.jpg", []byte("x")))
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
}

func TestNewSelectsDriver(t *testing.T) {
	images, err := New(context.Background(), config.StorageConfig{Driver: "local", UploadDir: t.TempDir()}, discard)
	require.NoError(t, err)
	assert.IsType(t, &Local{}, images)

	_, err = New(context.Background(), config.StorageConfig{Driver: "s3"}, discard)
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"}, discard)
	assert.Error(t, err)
}
