package fetch

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// pngHeader returns the signature and IHDR chunk of an 8-bit grayscale PNG.
// It is enough for image.DecodeConfig but carries no pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8

	chunk := append([]byte("IHDR"), ihdr...)
	buf := &bytes.Buffer{}
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func newMockedFetcher(t *testing.T, cfg Config) *Fetcher {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewFetcher(client, cfg)
}

func TestFetchRemote(t *testing.T) {
	f := newMockedFetcher(t, Config{})
	httpmock.RegisterResponder("GET", "https://host/photos/a.png",
		httpmock.NewBytesResponder(http.StatusOK, encodePNG(t, 96, 48)))

	img, err := f.Fetch(context.Background(), "https://host/photos/a.png")

	require.NoError(t, err)
	assert.Equal(t, 48, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestFetchRemoteStatus(t *testing.T) {
	f := newMockedFetcher(t, Config{})
	httpmock.RegisterResponder("GET", "http://host/missing.jpg",
		httpmock.NewStringResponder(http.StatusNotFound, "nope"))

	img, err := f.Fetch(context.Background(), "http://host/missing.jpg")

	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrNetworkStatus)
	assert.Equal(t, REASON_STATUS, Reason(err))
}

func TestFetchRemoteTransportFailure(t *testing.T) {
	f := newMockedFetcher(t, Config{})
	httpmock.RegisterResponder("GET", "https://down/a.png",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := f.Fetch(context.Background(), "https://down/a.png")

	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrNetworkTimeout)
}

func TestFetchRemoteTooLarge(t *testing.T) {
	f := newMockedFetcher(t, Config{MaxPhotoSize: 16 * bytesize.B})
	httpmock.RegisterResponder("GET", "https://host/big.png",
		httpmock.NewBytesResponder(http.StatusOK, encodePNG(t, 32, 32)))

	_, err := f.Fetch(context.Background(), "https://host/big.png")

	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchRemoteGarbage(t *testing.T) {
	f := newMockedFetcher(t, Config{})
	httpmock.RegisterResponder("GET", "https://host/a.png",
		httpmock.NewStringResponder(http.StatusOK, "<html>not an image</html>"))

	_, err := f.Fetch(context.Background(), "https://host/a.png")

	assert.ErrorIs(t, err, ErrDecode)
}

func TestFetchRemoteTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	f := NewFetcher(slow.Client(), Config{Timeout: 50 * time.Millisecond})

	now := time.Now()
	_, err := f.Fetch(context.Background(), slow.URL+"/a.png")

	assert.ErrorIs(t, err, ErrNetworkTimeout)
	assert.Less(t, time.Since(now), time.Second)
}

func TestFetchServerRelative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "uploads"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uploads", "a.png"), encodePNG(t, 20, 40), 0644))

	f := NewFetcher(nil, Config{UploadsDir: dir})

	for _, loc := range []string{"uploads/a.png", "/uploads/a.png"} {
		img, err := f.Fetch(context.Background(), loc)
		require.NoError(t, err, loc)
		assert.Equal(t, 24, img.Bounds().Dx(), loc)
		assert.Equal(t, 48, img.Bounds().Dy(), loc)
	}
}

func TestFetchServerRelativeMissing(t *testing.T) {
	f := NewFetcher(nil, Config{UploadsDir: t.TempDir()})

	img, err := f.Fetch(context.Background(), "uploads/missing.png")

	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, REASON_NOT_FOUND, Reason(err))
}

func TestFetchLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 10, 10), 0644))

	f := NewFetcher(nil, Config{ThumbnailWidth: 32, ThumbnailHeight: 16})
	img, err := f.Fetch(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
}

func TestFetchLocalUnreadable(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a jpeg"), 0644))

	f := NewFetcher(nil, Config{})

	_, err := f.Fetch(context.Background(), garbage)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = f.Fetch(context.Background(), dir)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "nothing-here.png"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFetchLocalTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 64, 64), 0644))

	f := NewFetcher(nil, Config{MaxPhotoSize: 8 * bytesize.B})
	_, err := f.Fetch(context.Background(), path)

	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, REASON_TOO_LARGE, Reason(err))
}

func TestFetchRejectsHugeDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.png")
	data := pngHeader(12000, 12000)
	require.NoError(t, os.WriteFile(path, data, 0644))

	f := NewFetcher(nil, Config{})
	img, err := f.Fetch(context.Background(), path)

	assert.Less(t, len(data), 100)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, REASON_TOO_LARGE, Reason(err))
}

func TestFetchMaxPixels(t *testing.T) {
	f := newMockedFetcher(t, Config{MaxPixels: 400})
	httpmock.RegisterResponder("GET", "https://host/small.png",
		httpmock.NewBytesResponder(http.StatusOK, encodePNG(t, 20, 20)))
	httpmock.RegisterResponder("GET", "https://host/big.png",
		httpmock.NewBytesResponder(http.StatusOK, encodePNG(t, 21, 20)))

	_, err := f.Fetch(context.Background(), "https://host/small.png")
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "https://host/big.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestThumbnailKeepsAspect(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{200, 100, 48, 24},
		{100, 200, 24, 48},
		{10, 10, 48, 48},
		{1000, 1, 48, 1},
	}
	for _, tt := range tests {
		img := Thumbnail(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), 48, 48)
		assert.Equal(t, tt.wantW, img.Bounds().Dx(), "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, img.Bounds().Dy(), "%dx%d", tt.w, tt.h)
	}
}

func TestThumbnailEmptySource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 0, 0))
	assert.Same(t, src, Thumbnail(src, 48, 48))

	flat := image.NewRGBA(image.Rect(0, 0, 10, 0))
	assert.Same(t, flat, Thumbnail(flat, 48, 48))
}

func TestReason(t *testing.T) {
	assert.Equal(t, REASON_OK, Reason(nil))
	assert.Equal(t, REASON_TIMEOUT, Reason(ErrNetworkTimeout))
	assert.Equal(t, REASON_DECODE, Reason(ErrDecode))
	assert.Equal(t, REASON_UNKNOWN, Reason(errors.New("boom")))
}
