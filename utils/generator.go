package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateResetToken returns a random token to email to the user and the
// sha256 hex digest to persist. Only the digest ever touches the database.
func GenerateResetToken() (plain string, hashed string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %v", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

// HashToken hashes a plaintext reset token for storage or lookup.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// GenerateOTP returns a 6-digit one-time code as a zero-padded string.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %v", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
