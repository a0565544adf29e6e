package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"math/big"
)

const (
	// DefaultTokenBytes is the entropy of a bearer token before encoding.
	DefaultTokenBytes = 32
	// DefaultCodeDigits is the length of a passcode.
	DefaultCodeDigits = 6

	minTokenBytes = 20
	// maxTokenBytes encodes to 64 characters, the width of the token column.
	maxTokenBytes = 48
)

var ten = big.NewInt(10)

// ErrInvalidLength is returned for a token outside 20..48 bytes or an empty code.
var ErrInvalidLength = errors.New("otp: invalid length")

// Generator creates session secrets.
type Generator interface {
	// Token returns a URL-safe random string.
	Token() (string, error)
	// Code returns a string of uniformly random decimal digits.
	Code() (string, error)
}

// Random implements Generator on top of a cryptographic random source.
type Random struct {
	src        io.Reader
	tokenBytes int
	codeDigits int
}

// NewRandom returns a Random reading from crypto/rand.
func NewRandom(tokenBytes, codeDigits int) (*Random, error) {
	return newRandom(rand.Reader, tokenBytes, codeDigits)
}

func newRandom(src io.Reader, tokenBytes, codeDigits int) (*Random, error) {
	if tokenBytes == 0 {
		tokenBytes = DefaultTokenBytes
	}
	if codeDigits == 0 {
		codeDigits = DefaultCodeDigits
	}
	if tokenBytes < minTokenBytes || tokenBytes > maxTokenBytes || codeDigits < 1 {
		return nil, ErrInvalidLength
	}
	return &Random{src: src, tokenBytes: tokenBytes, codeDigits: codeDigits}, nil
}

func (r *Random) Token() (string, error) {
	b := make([]byte, r.tokenBytes)
	if _, err := io.ReadFull(r.src, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Code draws each digit with rand.Int so every digit is equally likely.
func (r *Random) Code() (string, error) {
	out := make([]byte, r.codeDigits)
	for i := range out {
		n, err := rand.Int(r.src, ten)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}

// Equal compares a presented code against the stored one in constant time.
func Equal(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
