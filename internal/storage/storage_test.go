package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
)

func TestObjectKey(t *testing.T) {
	a := ObjectKey(RecipeImagePrefix, "png")
	b := ObjectKey(RecipeImagePrefix, ".png")

	assert.True(t, strings.HasPrefix(a, "recipes/images/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.False(t, strings.HasSuffix(b, "..png"))
	assert.NotEqual(t, a, b)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root, "/media/")

	url, err := store.Save(ctx, "users/a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/users/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "users", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "users/a.png", key)
	_, ok = store.KeyFromURL("https://elsewhere/a.png")
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "users", "a.png"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, key), "deleting a missing file is not an error")

	_, err = store.Save(ctx, "../escape.png", []byte("x"), "image/png")
	assert.Error(t, err)
}

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.puts[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}

	t.Run("default public url", func(t *testing.T) {
		store := newS3Store(fake, S3Options{Bucket: "media", Region: "eu-west-1"})
		url, err := store.Save(ctx, "recipes/images/x.jpeg", []byte("jpeg"), "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/recipes/images/x.jpeg", url)
		assert.Equal(t, []byte("jpeg"), fake.puts["recipes/images/x.jpeg"])
		assert.Equal(t, "image/jpeg", fake.types["recipes/images/x.jpeg"])

		key, ok := store.KeyFromURL(url)
		require.True(t, ok)
		require.NoError(t, store.Delete(ctx, key))
		assert.Equal(t, []string{"recipes/images/x.jpeg"}, fake.deleted)
	})

	t.Run("custom endpoint", func(t *testing.T) {
		store := newS3Store(fake, S3Options{Bucket: "media", Endpoint: "http://minio:9000/"})
		url, err := store.Save(ctx, "users/a.png", []byte("png"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "http://minio:9000/media/users/a.png", url)
	})

	t.Run("upload failure", func(t *testing.T) {
		failing := &fakeS3{err: errors.New("boom")}
		store := newS3Store(failing, S3Options{Bucket: "media", PublicURL: "https://cdn.example.com"})
		_, err := store.Save(ctx, "users/a.png", []byte("png"), "image/png")
		assert.ErrorContains(t, err, "boom")
	})
}

func TestNewSelectsLocalStore(t *testing.T) {
	store, err := New(context.Background(), &config.Config{StorageDriver: "local", MediaRoot: t.TempDir(), MediaURL: "/media/"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}
