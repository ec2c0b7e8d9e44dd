package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// TokenDigest is used wherever a session token is stored or compared, so the
// raw token never leaves memory.
func TokenDigest(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash)
}
