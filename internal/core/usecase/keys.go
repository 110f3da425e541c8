package usecase

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	apiKeyLength   = 32
	apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateAPIKey returns a random alphanumeric key drawn uniformly from
// apiKeyAlphabet.
func GenerateAPIKey() (string, error) {
	max := big.NewInt(int64(len(apiKeyAlphabet)))
	buf := make([]byte, apiKeyLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		buf[i] = apiKeyAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func HashAPIKey(key string) string {
	digest := sha256.Sum256([]byte(key))
	return hex.EncodeToString(digest[:])
}
