// Package qrcode renders verification links as QR images.
package qrcode

import (
	"encoding/base64"
	"fmt"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image width and height in pixels.
const DefaultSize = 200

const verifyPath = "/verify-document/"

// VerificationURL builds the public link a scanned code resolves to.
func VerificationURL(frontendURL, slug string) string {
	return strings.TrimRight(frontendURL, "/") + verifyPath + slug
}

// PNG encodes content with high error correction.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(content, goqrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// DataURL encodes content as a base64 PNG data URL suitable for storage and
// inline display.
func DataURL(content string) (string, error) {
	png, err := PNG(content, DefaultSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURL returns the PNG bytes carried by a data URL produced by DataURL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		return nil, fmt.Errorf("unsupported qr data url")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
}
