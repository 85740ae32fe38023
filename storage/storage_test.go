package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	l, err := NewLocal(root)
	require.NoError(t, err)

	path, err := l.Save(ctx, ThumbnailFolder, "Cover.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/storage/thumbnails/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	onDisk := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(path, PublicPrefix)))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Delete(ctx, path))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// already gone
	require.NoError(t, l.Delete(ctx, path))
}

func TestLocalDeleteIgnoresForeignPaths(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	l, err := NewLocal(root)
	require.NoError(t, err)

	require.NoError(t, l.Delete(context.Background(), "/storage/../keep.txt"))
	require.NoError(t, l.Delete(context.Background(), "https://cdn.example.com/a.png"))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

type fakeObjects struct {
	put     map[string]string
	deleted []string
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.put[aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3SaveAndDelete(t *testing.T) {
	ctx := context.Background()
	objects := &fakeObjects{put: map[string]string{}}
	s := NewS3(objects, "cockpit", "ap-northeast-1", "")

	url, err := s.Save(ctx, ThumbnailFolder, "shot.jpg", "image/jpeg", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cockpit.s3.ap-northeast-1.amazonaws.com/thumbnails/"))
	require.Len(t, objects.put, 1)

	require.NoError(t, s.Delete(ctx, url))
	require.Len(t, objects.deleted, 1)
	assert.Equal(t, strings.TrimPrefix(url, "https://cockpit.s3.ap-northeast-1.amazonaws.com/"), objects.deleted[0])

	require.NoError(t, s.Delete(ctx, "/storage/thumbnails/other.png"))
	assert.Len(t, objects.deleted, 1)
}
