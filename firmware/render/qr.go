package render

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QREncoder turns text into a square module bitmap, bitmap[y][x] true for
// dark modules, without a quiet zone.
type QREncoder func(content string) ([][]bool, error)

// qrVersion fits "http://" plus any IPv4 address at low error correction.
const qrVersion = 3

// EncodeQR is the default encoder: version 3, low error correction, falling
// back to the smallest version that fits longer content.
func EncodeQR(content string) ([][]bool, error) {
	q, err := qrcode.NewWithForcedVersion(content, qrVersion, qrcode.Low)
	if err != nil {
		q, err = qrcode.New(content, qrcode.Low)
		if err != nil {
			return nil, fmt.Errorf("encode qr %q: %w", content, err)
		}
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}
