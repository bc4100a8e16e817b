package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/gin-gonic/gin"
)

// RespondWithError writes the uniform JSON error envelope and aborts.
func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

const randomAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomString returns an uppercase alphanumeric string, used
// for invoice-number suffixes and order ids.
func GenerateRandomString(length int) string {
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(randomAlphabet))))
		if err != nil {
			panic("failed to read random bytes")
		}
		out[i] = randomAlphabet[n.Int64()]
	}
	return string(out)
}

// GenerateOTP returns a 6-digit numeric code.
func GenerateOTP() string {
	out := make([]byte, 6)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic("failed to read random bytes")
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out)
}
