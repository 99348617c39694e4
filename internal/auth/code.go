package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a recovery code.
const CodeLength = 6

var codeSpan = big.NewInt(900000)

// CodeGenerator produces recovery codes.
type CodeGenerator func() (string, error)

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("failed to generate recovery code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
