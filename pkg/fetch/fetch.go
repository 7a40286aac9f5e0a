package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ish-xyz/roster-photocache/pkg/metrics"
	"github.com/sirupsen/logrus"
)

func NewFetcher(cl *http.Client, cfg Config) *Fetcher {
	if cl == nil {
		cl = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DEFAULT_TIMEOUT
	}
	if cfg.MaxPhotoSize <= 0 {
		cfg.MaxPhotoSize = DEFAULT_MAX_PHOTO_SIZE
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DEFAULT_MAX_PIXELS
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = DEFAULT_THUMBNAIL_WIDTH
	}
	if cfg.ThumbnailHeight <= 0 {
		cfg.ThumbnailHeight = DEFAULT_THUMBNAIL_HEIGHT
	}

	return &Fetcher{
		client:     cl,
		timeout:    cfg.Timeout,
		uploadsDir: cfg.UploadsDir,
		maxSize:    int64(cfg.MaxPhotoSize),
		maxPixels:  cfg.MaxPixels,
		width:      cfg.ThumbnailWidth,
		height:     cfg.ThumbnailHeight,
		log:        logrus.WithField("name", "fetcher"),
	}
}

// Fetch resolves locator, decodes the bytes and scales them to a thumbnail.
// Errors wrap one of the sentinel errors of this package.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (image.Image, error) {

	kind := Classify(locator)
	now := time.Now()

	img, err := f.fetch(ctx, kind, locator)

	metrics.FetchDuration.WithLabelValues(string(kind)).Observe(time.Since(now).Seconds())
	metrics.Fetches.WithLabelValues(string(kind), Reason(err)).Inc()

	return img, err
}

func (f *Fetcher) fetch(ctx context.Context, kind Kind, locator string) (image.Image, error) {

	var data []byte
	var err error

	if kind == KIND_REMOTE {
		data, err = f.readRemote(ctx, locator)
	} else {
		data, err = f.readFile(Resolve(locator, f.uploadsDir))
	}
	if err != nil {
		return nil, err
	}

	img, err := Decode(data, f.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", locator, err)
	}

	return Thumbnail(img, f.width, f.height), nil
}

func (f *Fetcher) readRemote(ctx context.Context, locator string) ([]byte, error) {

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	f.log.Tracef("GET %s", locator)
	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s after %s", ErrNetworkTimeout, locator, f.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrNetworkStatus, locator, resp.StatusCode)
	}

	data, err := readLimited(resp.Body, f.maxSize)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%w: %s", err, locator)
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s after %s", ErrNetworkTimeout, locator, f.timeout)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNetwork, locator, err)
	}

	return data, nil
}

// Any stat failure counts as a missing file; a file that exists but can't be read is unreadable.
func (f *Fetcher) readFile(path string) ([]byte, error) {

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDecode, path)
	}
	if info.Size() > f.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer file.Close()

	data, err := readLimited(file, f.maxSize)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%w: %s", err, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return data, nil
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
