package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgTodoAPI/internal/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUpload(t *testing.T) {
	putter := &fakePutter{}
	s := NewS3StorageWithClient(putter, "avatars", "https://cdn.example.com/")

	url, err := s.Upload(context.Background(), "profiles/u1/a.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/profiles/u1/a.png", url)
	assert.Equal(t, "avatars", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, "png", putter.body)
}

func TestUploadError(t *testing.T) {
	s := NewS3StorageWithClient(&fakePutter{err: errors.New("denied")}, "b", "https://x")
	_, err := s.Upload(context.Background(), "k", "image/png", strings.NewReader(""))
	assert.ErrorContains(t, err, "denied")
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn", publicBase(&config.Config{S3PublicBaseURL: "https://cdn"}))
	assert.Equal(t, "http://minio:9000/pics", publicBase(&config.Config{S3Endpoint: "http://minio:9000/", S3Bucket: "pics"}))
	assert.Equal(t, "https://pics.s3.eu-west-1.amazonaws.com", publicBase(&config.Config{S3Bucket: "pics", S3Region: "eu-west-1"}))
}
