package fulfillment

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// artworkSize is the pixel width of generated print artwork. Print providers
// want at least 1000px on the short edge for a readable back print.
const artworkSize = 1024

// RenderQRArtwork renders the QR target URL as a PNG suitable for printing.
func RenderQRArtwork(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, artworkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR artwork for %s: %w", url, err)
	}
	return png, nil
}
