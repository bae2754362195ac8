// Package images uploads product photos to the hosted storage bucket and
// returns their public URLs.
package images

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/medatechnology/goutil/medaerror"

	"github.com/kustore/storefront/logging"
)

// MaxUploadSize caps one image at 10MB.
const MaxUploadSize = 10 << 20

// DefaultTimeout bounds one upload request.
const DefaultTimeout = 30 * time.Second

var (
	ErrTooLarge        medaerror.MedaError = medaerror.MedaError{Message: "image exceeds the 10MB size limit"}
	ErrUnsupportedType medaerror.MedaError = medaerror.MedaError{Message: "image type is not supported, use JPEG, PNG, WebP or GIF"}
	// ErrBadResponse is returned when the storage service answers with a
	// body that does not match the expected shape.
	ErrBadResponse medaerror.MedaError = medaerror.MedaError{Message: "storage service returned an unexpected response"}
)

// allowedTypes maps accepted MIME types to the file extension used for the
// stored object name.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader stores images in one bucket of the hosted storage service.
type Uploader struct {
	baseURL string
	bucket  string
	token   string
	client  *http.Client
	logger  logging.Logger
}

// NewUploader builds an uploader for the given storage base URL and bucket.
func NewUploader(baseURL, bucket, token string, logger logging.Logger) *Uploader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Uploader{
		baseURL: baseURL,
		bucket:  bucket,
		token:   token,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
}

type uploadResponse struct {
	Key string `json:"Key"`
}

// Upload validates the image bytes and stores them under a random name.
// Returns the public URL of the stored object. The MIME type is sniffed
// from the content, never trusted from the caller.
func (u *Uploader) Upload(data []byte) (string, error) {
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	mime := mimetype.Detect(data).String()
	ext, ok := allowedTypes[mime]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	endpoint := fmt.Sprintf("%s/object/%s/%s", u.baseURL, u.bucket, name)

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mime)
	req.Header.Set("Authorization", "Bearer "+u.token)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage upload failed with status %d", resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if ur.Key == "" {
		return "", ErrBadResponse
	}

	url := u.PublicURL(name)
	u.logger.Info("image uploaded",
		logging.String("name", name),
		logging.String("mime", mime),
		logging.Int("size", len(data)),
	)
	return url, nil
}

// PublicURL returns the public address of an object in the bucket.
func (u *Uploader) PublicURL(name string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", u.baseURL, u.bucket, name)
}
