package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3WriteUsesPrefixedKey(t *testing.T) {
	putter := &fakePutter{}
	w := newS3WithClient(putter, "bucket", "/incoming/")

	require.NoError(t, w.Write(context.Background(), "a.txt", []byte("hello")))

	require.Len(t, putter.inputs, 1)
	assert.Equal(t, "bucket", aws.ToString(putter.inputs[0].Bucket))
	assert.Equal(t, "incoming/a.txt", aws.ToString(putter.inputs[0].Key))
	assert.Equal(t, int64(5), aws.ToInt64(putter.inputs[0].ContentLength))
	assert.Equal(t, []byte("hello"), putter.bodies[0])
	assert.Equal(t, "s3://bucket/incoming/a.txt", w.Location("a.txt"))
}

func TestS3WriteWithoutPrefix(t *testing.T) {
	w := newS3WithClient(&fakePutter{}, "bucket", "")
	assert.Equal(t, "s3://bucket/a.txt", w.Location("a.txt"))
}

func TestS3WriteWrapsClientError(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	w := newS3WithClient(putter, "bucket", "")

	err := w.Write(context.Background(), "a.txt", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3WriteRejectsPathNames(t *testing.T) {
	putter := &fakePutter{}
	w := newS3WithClient(putter, "bucket", "")

	for _, name := range []string{"", ".", "..", "../a", `a\b`} {
		require.ErrorIs(t, w.Write(context.Background(), name, nil), ErrOutsideRoot)
	}
	assert.Empty(t, putter.inputs)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{Region: "us-east-1"})
	require.Error(t, err)
}

func TestNewS3PassesOptionsToLoader(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	var calls int
	loadDefaultAWSConfig = func(_ context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		calls++
		assert.Len(t, optFns, 2)
		return aws.Config{Region: "eu-west-1"}, nil
	}

	w, err := NewS3(context.Background(), S3Options{
		Bucket:    "b",
		Region:    "eu-west-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "p",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "s3://b/p/x", w.Location("x"))
}
