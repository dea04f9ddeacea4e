// File: /utils/codes.go
package utils

import (
	"crypto/rand"
	"math/big"
)

// CodeAlphabet excludes characters that read ambiguously when shared out
// loud or scribbled down: I, L, O, 0, 1.
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	CodeMinLength = 5
	CodeMaxLength = 8
)

// RandomCode draws one candidate join code of length 5-8. Codes double as a
// join secret, so the draws come from crypto/rand.
func RandomCode() (string, error) {
	span := big.NewInt(int64(CodeMaxLength - CodeMinLength + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	length := CodeMinLength + int(n.Int64())

	alphabetLen := big.NewInt(int64(len(CodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		code[i] = CodeAlphabet[idx.Int64()]
	}

	return string(code), nil
}
