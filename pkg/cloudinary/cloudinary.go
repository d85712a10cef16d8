package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads onboarding documents (profile photos, ID scans) and returns
// delivery URLs; only URLs are persisted, never the bytes.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

const (
	// Eager transformation applied at upload so dashboards load fast.
	imageEager = "q_auto,f_auto,w_800,c_fill"
	ThumbWidth = 200
)

var eagerAsyncFalse = false

type clientImpl struct {
	uploader *uploader.API
}

// ThumbnailURL rewrites a delivery URL with an on-the-fly resize
// transformation. Non-Cloudinary URLs come back unchanged.
func ThumbnailURL(url string, width int) string {
	if width <= 0 {
		width = ThumbWidth
	}
	base, rest, found := strings.Cut(url, "/upload/")
	if !found {
		return url
	}
	return fmt.Sprintf("%s/upload/q_auto,f_auto,w_%d,c_fill/%s", base, width, rest)
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}

var ErrNotCloudinaryURL = errors.New("not a cloudinary delivery url")

// DeleteByURL destroys the asset behind a delivery URL. Used when an employee
// record is removed and the documents must go with it.
func (c *clientImpl) DeleteByURL(ctx context.Context, url string) error {
	publicID, err := publicIDFromURL(url)
	if err != nil {
		return err
	}
	_, err = c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// publicIDFromURL recovers the public_id from a delivery URL: everything after
// the /upload/ segment, minus transformation and version components and the
// file extension.
func publicIDFromURL(url string) (string, error) {
	_, rest, found := strings.Cut(url, "/upload/")
	if !found {
		return "", ErrNotCloudinaryURL
	}
	parts := strings.Split(rest, "/")
	for len(parts) > 1 {
		head := parts[0]
		if strings.ContainsAny(head, ",_=") || (strings.HasPrefix(head, "v") && isDigits(head[1:])) {
			parts = parts[1:]
			continue
		}
		break
	}
	id := strings.Join(parts, "/")
	if dot := strings.LastIndexByte(id, '.'); dot > 0 {
		id = id[:dot]
	}
	if id == "" {
		return "", ErrNotCloudinaryURL
	}
	return id, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{uploader: up}, nil
}
