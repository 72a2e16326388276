package issuance

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/pkg/storage"
)

type fakeStore struct {
	objects map[string][]byte
	putErr  error
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) PutPNG(_ context.Context, key string, png []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = png
	return nil
}

func (s *fakeStore) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://bucket.test/" + key + "?sig=1", nil
}

func TestQRServiceURL(t *testing.T) {
	assert.Equal(t,
		"https://api.qrserver.com/v1/create-qr-code/?size=250x250&data=%7B%22id%22%3A%22a%22%2C%22code%22%3A%22568789%22%7D",
		QRServiceURL(`{"id":"a","code":"568789"}`))
}

func TestSource_DataURL(t *testing.T) {
	src, err := NewQRRenderer(config.QRImageDataURL, nil).Source(context.Background(), "t1", "payload")
	require.NoError(t, err)
	assert.Contains(t, src, "data:image/png;base64,")
}

func TestSource_S3UploadsOnce(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	r := NewQRRenderer(config.QRImageS3, store)

	src, err := r.Source(context.Background(), "t1", "payload")
	require.NoError(t, err)
	key := storage.QRKey("t1", "payload")
	assert.Equal(t, "https://bucket.test/"+key+"?sig=1", src)
	png := store.objects[key]
	require.NotEmpty(t, png)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	store.putErr = errors.New("should not upload again")
	_, err = r.Source(context.Background(), "t1", "payload")
	assert.NoError(t, err)
}

func TestSource_S3PayloadChangeUploadsNewImage(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	r := NewQRRenderer(config.QRImageS3, store)

	first, err := r.Source(context.Background(), "t1", `{"id":"t1","code":"568789"}`)
	require.NoError(t, err)
	second, err := r.Source(context.Background(), "t1", "3f2a9c1e-reg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	require.Len(t, store.objects, 2)
	want, err := PNG("3f2a9c1e-reg")
	require.NoError(t, err)
	assert.Equal(t, want, store.objects[storage.QRKey("t1", "3f2a9c1e-reg")])
}

func TestSource_S3WithoutStore(t *testing.T) {
	_, err := NewQRRenderer(config.QRImageS3, nil).Source(context.Background(), "t1", "payload")
	assert.Error(t, err)
}
