package utils

import (
	cryptoRand "crypto/rand"
	"fmt"
	mathrand "math/rand"
	"time"
)

// GenerateRequestID generates a new request ID for log correlation.
func GenerateRequestID() string {
	timestamp := time.Now().Format("20060102_150405")
	random, err := generateRandomString(8)
	if err != nil {
		random = generateRandomStringInsecure(8)
	}
	return fmt.Sprintf("req_%s_%s", timestamp, random)
}

// generateRandomString generates a random string of specified length
func generateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	if _, err := cryptoRand.Read(b); err != nil {
		return "", fmt.Errorf("unable to securely generate random string: %w", err)
	}
	for i := range b {
		b[i] = charset[b[i]%byte(len(charset))]
	}
	return string(b), nil
}

// generateRandomStringInsecure is a best-effort fallback for non-secret IDs if crypto/rand fails.
func generateRandomStringInsecure(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	src := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	for i := range b {
		b[i] = charset[src.Intn(len(charset))]
	}
	return string(b)
}
