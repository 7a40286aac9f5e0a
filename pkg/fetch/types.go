package fetch

import (
	"net/http"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KIND_REMOTE          Kind = "remote"
	KIND_SERVER_RELATIVE Kind = "server-relative"
	KIND_LOCAL           Kind = "local"

	PREFIX_HTTP           = "http://"
	PREFIX_HTTPS          = "https://"
	PREFIX_UPLOADS        = "uploads/"
	PREFIX_UPLOADS_ROOTED = "/uploads/"

	DEFAULT_TIMEOUT          = 5 * time.Second
	DEFAULT_THUMBNAIL_WIDTH  = 48
	DEFAULT_THUMBNAIL_HEIGHT = 48
	DEFAULT_MAX_PHOTO_SIZE   = 10 * bytesize.MB
	DEFAULT_MAX_PIXELS       = 4096 * 4096
)

type Config struct {
	Timeout         time.Duration
	UploadsDir      string
	MaxPhotoSize    bytesize.ByteSize
	MaxPixels       int64
	ThumbnailWidth  int
	ThumbnailHeight int
}

// Fetcher resolves a locator to bytes and turns them into a thumbnail.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	uploadsDir string
	maxSize    int64
	maxPixels  int64
	width      int
	height     int
	log        *logrus.Entry
}
