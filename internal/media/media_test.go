package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessConvertsToJPEG(t *testing.T) {
	result, err := Process(testPNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.MIME)

	decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
}

func TestProcessDownscales(t *testing.T) {
	result, err := Process(testPNG(t, 2048, 1024))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, cfg.Width)
	assert.Equal(t, MaxDimension/2, cfg.Height)
}

func TestProcessRejectsText(t *testing.T) {
	_, err := Process([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

// pngHeader returns a PNG that declares w x h grayscale pixels but carries no data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcessRejectsOversizedDimensions(t *testing.T) {
	_, err := Process(pngHeader(20000, 20000))
	require.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestProcessFlattensTransparencyOntoWhite(t *testing.T) {
	for _, size := range []int{16, 2 * MaxDimension} {
		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		result, err := Process(buf.Bytes())
		require.NoError(t, err)

		decoded, err := jpeg.Decode(bytes.NewReader(result.Data))
		require.NoError(t, err)
		r, g, b, _ := decoded.At(decoded.Bounds().Dx()/2, decoded.Bounds().Dy()/2).RGBA()
		assert.Greater(t, r>>8, uint32(240), "size %d", size)
		assert.Greater(t, g>>8, uint32(240), "size %d", size)
		assert.Greater(t, b>>8, uint32(240), "size %d", size)
	}
}

func TestLocalStoreWritesFile(t *testing.T) {
	dir := t.TempDir()
	photos := NewPhotos(NewLocalStore(dir, "/media/"), "photos")
	photos.now = func() time.Time { return time.Unix(0, 42) }

	url, err := photos.SaveDishPhoto(context.Background(), 7, testPNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, "/media/photos/dish-7-42.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "photos", "dish-7-42.jpg"))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

type recordingS3 struct {
	input   *s3.PutObjectInput
	deleted *s3.DeleteObjectInput
}

func (r *recordingS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	r.deleted = params
	return &s3.DeleteObjectOutput{}, nil
}

func (r *recordingS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.input = params
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePut(t *testing.T) {
	client := &recordingS3{}
	store := &S3Store{client: client, bucket: "menu", baseURL: "https://cdn.example.com"}

	url, err := store.Put(context.Background(), "photos/dish-1.jpg", []byte("x"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/dish-1.jpg", url)
	assert.Equal(t, "menu", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(client.input.ContentType))
	assert.True(t, strings.HasPrefix(aws.ToString(client.input.Key), "photos/"))
}

func TestLocalStoreDeletesOwnFilesOnly(t *testing.T) {
	dir := t.TempDir()
	photos := NewPhotos(NewLocalStore(dir, "/media"), "photos")
	ctx := context.Background()

	url, err := photos.SaveDishPhoto(ctx, 3, testPNG(t, 10, 10))
	require.NoError(t, err)

	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	require.NoError(t, photos.DeleteDishPhoto(ctx, "https://elsewhere.example.com/photos/x.jpg"))
	require.NoError(t, photos.DeleteDishPhoto(ctx, "/media/../keep.txt"))
	require.NoError(t, photos.DeleteDishPhoto(ctx, ""))
	assert.FileExists(t, outside)

	require.NoError(t, photos.DeleteDishPhoto(ctx, url))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/media/"))))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, photos.DeleteDishPhoto(ctx, url))
}

func TestS3StoreDelete(t *testing.T) {
	client := &recordingS3{}
	store := &S3Store{client: client, bucket: "menu", baseURL: "https://cdn.example.com"}

	require.NoError(t, store.Delete(context.Background(), "https://other.example.com/photos/dish-1.jpg"))
	assert.Nil(t, client.deleted)

	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/photos/dish-1.jpg"))
	require.NotNil(t, client.deleted)
	assert.Equal(t, "menu", aws.ToString(client.deleted.Bucket))
	assert.Equal(t, "photos/dish-1.jpg", aws.ToString(client.deleted.Key))
}
