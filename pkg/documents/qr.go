package documents

import (
	"errors"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrPixels = 256

func encodeQR(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("qr content is empty")
	}
	return qrcode.Encode(content, qrcode.Medium, qrPixels)
}
