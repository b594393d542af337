package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const verificationCodeDigits = 6

type randomCodeGenerator struct{}

// NewCodeGenerator returns a generator of zero-padded 6-digit codes drawn
// from crypto/rand.
func NewCodeGenerator() CodeGenerator {
	return randomCodeGenerator{}
}

func (randomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n.Int64()), nil
}
