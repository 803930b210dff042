// Package qrcode renders QR artifacts for provisioned identifiers. Generation
// is pure: the same input produces the same image, and nothing is written
// anywhere but the returned buffer.
package qrcode

import (
	"fmt"
	"image/color"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image width/height in pixels
const DefaultSize = 300

// brand foreground used for all provisioned codes
var defaultForeground = color.RGBA{R: 0x34, G: 0xA8, B: 0x53, A: 0xFF}

// Generator renders QR-encoded PNG images
type Generator struct {
	size       int
	foreground color.Color
	background color.Color
}

// NewGenerator creates a Generator. A non-positive size falls back to DefaultSize.
func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{
		size:       size,
		foreground: defaultForeground,
		background: color.White,
	}
}

// GeneratePNG encodes content as a QR code and returns the PNG bytes.
// Highest error correction leaves headroom for logo overlays done downstream.
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content must not be empty")
	}

	code, err := qr.New(content, qr.Highest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr content: %w", err)
	}

	code.ForegroundColor = g.foreground
	code.BackgroundColor = g.background

	png, err := code.PNG(g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr png: %w", err)
	}

	return png, nil
}
