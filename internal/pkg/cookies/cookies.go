package cookies

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrEmptyKey         = errors.New("empty key")
	ErrEmptyValue       = errors.New("empty value")
	ErrValueTooShort    = errors.New("signed value is too short")
	ErrInvalidSignature = errors.New("invalid signature")
)

// SignKeyValue returns base64url(hmac(key+value) || value).
func SignKeyValue(key string, value string, secretKey []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("error signing key value: %w", ErrEmptyKey)
	}
	if value == "" {
		return "", fmt.Errorf("error signing key value: %w", ErrEmptyValue)
	}

	signed := append(signature(key, []byte(value), secretKey), value...)
	return base64.RawURLEncoding.EncodeToString(signed), nil
}

func VerifySignedKeyValue(key string, signedValue string, secretKey []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("error verifying signed key value: %w", ErrEmptyKey)
	}
	if signedValue == "" {
		return "", fmt.Errorf("error verifying signed key value: %w", ErrEmptyValue)
	}

	signedBytes, err := base64.RawURLEncoding.DecodeString(signedValue)
	if err != nil {
		return "", fmt.Errorf("error verifying signed key value: %w", err)
	}
	if len(signedBytes) <= sha256.Size {
		return "", fmt.Errorf("error verifying signed key value: %w", ErrValueTooShort)
	}

	value := signedBytes[sha256.Size:]
	if !hmac.Equal(signedBytes[:sha256.Size], signature(key, value, secretKey)) {
		return "", fmt.Errorf("error verifying signed key value: %w", ErrInvalidSignature)
	}

	return string(value), nil
}

func signature(key string, value []byte, secretKey []byte) []byte {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(key))
	mac.Write(value)
	return mac.Sum(nil)
}
