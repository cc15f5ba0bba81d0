package workflow

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// barcodeAlphabet is the Code 39 character set minus the symbols, so the
// token scans on any stock reader.
const barcodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const barcodeLength = 12

// GenerateBarcode produces a random printable token for sample labels.
// Uniqueness is advisory: 12 characters over a 36-symbol alphabet makes
// collisions negligible, and no storage check is performed.
func GenerateBarcode() (string, error) {
	n := big.NewInt(int64(len(barcodeAlphabet)))
	buf := make([]byte, barcodeLength)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", fmt.Errorf("generate barcode: %w", err)
		}
		buf[i] = barcodeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
