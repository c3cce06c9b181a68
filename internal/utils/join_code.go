package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/yukikurage/roommates-api/internal/constants"
)

// GenerateJoinCode generates a random short join code such as "K7QM".
func GenerateJoinCode() (string, error) {
	alphabet := constants.JoinCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(constants.JoinCodeLength)
	for i := 0; i < constants.JoinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeJoinCode trims and upper-cases user supplied codes.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
