package session

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/nacl/auth"
)

// signer appends a nacl/auth tag to session ids: "<id>.<base64 tag>".
type signer struct {
	key [32]byte
}

func newSigner(secret string) *signer {
	return &signer{key: sha256.Sum256([]byte(secret))}
}

func (s *signer) sign(id string) string {
	tag := auth.Sum([]byte(id), &s.key)
	return id + "." + base64.RawURLEncoding.EncodeToString(tag[:])
}

func (s *signer) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	tag, err := base64.RawURLEncoding.DecodeString(value[i+1:])
	if err != nil || len(tag) != auth.Size {
		return "", false
	}
	id := value[:i]
	if !auth.Verify(tag, []byte(id), &s.key) {
		return "", false
	}
	return id, true
}
