package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	data, contentType, ext, err := service.DecodeImage(onePixelPNG)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	bare := strings.TrimPrefix(onePixelPNG, "data:image/png;base64,")
	_, contentType, _, err = service.DecodeImage(bare)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	for name, value := range map[string]string{
		"not base64":       "data:image/png;base64,@@@",
		"missing encoding": "data:image/png,abc",
		"text payload":     "data:image/png;base64,aGVsbG8gd29ybGQ=",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := service.DecodeImage(value)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "image")
		})
	}
}

func TestLocalImageStore(t *testing.T) {
	dir := t.TempDir()
	store := service.NewLocalImageStore(dir, "/media")
	ctx := context.Background()

	key, err := store.Save(ctx, []byte("png-bytes"), "image/png", ".png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "/media/"+key, store.URL(key))
	assert.Empty(t, store.URL(""))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(stored))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}
