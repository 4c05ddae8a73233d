//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/cloo-solutions/ragengine/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Client(ctx context.Context, t *testing.T) *S3Client {
	t.Helper()

	rc := testutil.NewRustFSContainer(ctx, t)
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "rag-uploads-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))
	return client
}

func TestS3Client_ArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestS3Client(ctx, t)

	key := "uploads/batch-1/notes.txt"
	body := []byte("raw upload bytes")

	require.NoError(t, client.PutObject(ctx, key, body, "text/plain"))

	got, err := client.GetObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	require.NoError(t, client.DeleteObject(ctx, key))
	_, err = client.GetObject(ctx, key)
	assert.Error(t, err)

	assert.NoError(t, client.DeleteObject(ctx, key))
}

func TestS3Client_EnsureBucketIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client := newTestS3Client(ctx, t)

	assert.NoError(t, client.EnsureBucket(ctx))
}
