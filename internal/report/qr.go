package report

import (
	"errors"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DigestQR renders the payload digest as a PNG QR code. The digest is
// uppercased and stripped to hex digits before encoding, which keeps the
// code in the compact alphanumeric mode.
func DigestQR(digest string, size int) ([]byte, error) {
	normalized := strings.Map(upperHex, strings.ToUpper(digest))
	if normalized == "" {
		return nil, errors.New("payload digest is empty")
	}
	if size <= 0 {
		size = 128
	}
	return qrcode.Encode(normalized, qrcode.Medium, size)
}

func upperHex(r rune) rune {
	if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') {
		return r
	}
	return -1
}
