package issuance

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/pkg/storage"
)

const (
	qrPixels      = 250
	qrServiceBase = "https://api.qrserver.com/v1/create-qr-code/?size=250x250&data="
)

// ObjectStore holds rendered QR images for the s3 image mode.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	PutPNG(ctx context.Context, key string, png []byte) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

// QRRenderer turns a QR payload into an image source usable in an email.
type QRRenderer struct {
	mode  string
	store ObjectStore
}

// NewQRRenderer creates a renderer for a QR_IMAGE_MODE. store is required
// only for the s3 mode.
func NewQRRenderer(mode string, store ObjectStore) *QRRenderer {
	if mode == "" {
		mode = config.QRImageDataURL
	}
	return &QRRenderer{mode: mode, store: store}
}

// PNG encodes payload as a QR PNG.
func PNG(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, qrPixels)
}

// QRServiceURL returns the hosted QR image URL for payload.
func QRServiceURL(payload string) string {
	return qrServiceBase + url.QueryEscape(payload)
}

// Source returns the <img src> for a ticket's QR image.
func (r *QRRenderer) Source(ctx context.Context, ticketID, payload string) (string, error) {
	switch r.mode {
	case config.QRImageQRService:
		return QRServiceURL(payload), nil
	case config.QRImageS3:
		if r.store == nil {
			return "", fmt.Errorf("qr image store not configured")
		}
		key := storage.QRKey(ticketID, payload)
		ok, err := r.store.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !ok {
			png, err := PNG(payload)
			if err != nil {
				return "", fmt.Errorf("encode qr: %w", err)
			}
			if err := r.store.PutPNG(ctx, key, png); err != nil {
				return "", err
			}
		}
		return r.store.PresignedURL(ctx, key)
	default:
		png, err := PNG(payload)
		if err != nil {
			return "", fmt.Errorf("encode qr: %w", err)
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
	}
}
