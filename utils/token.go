package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomToken returns a random code of the given length drawn from
// an unambiguous alphabet.
func GenerateRandomToken(length int) (string, error) {
	limit := big.NewInt(int64(len(tokenCharset)))
	token := make([]byte, length)
	for i := range token {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		token[i] = tokenCharset[n.Int64()]
	}
	return string(token), nil
}
