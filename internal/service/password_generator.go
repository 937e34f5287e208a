package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// passwordAlphabet omits look-alike characters (I, O, l, o, 0, 1) so printed
// login sheets can be typed back without confusion.
const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789!@#$%^&*"

const defaultPasswordLength = 10

// formulaLeaders start a formula when they lead a spreadsheet cell.
const formulaLeaders = "=+-@"

// PasswordGenerator produces random initial passwords from a fixed alphabet.
type PasswordGenerator struct {
	length   int
	alphabet string
	leading  string
	random   io.Reader
}

// NewPasswordGenerator builds a generator emitting passwords of the given length.
func NewPasswordGenerator(length int) *PasswordGenerator {
	if length <= 0 {
		length = defaultPasswordLength
	}
	return &PasswordGenerator{
		length:   length,
		alphabet: passwordAlphabet,
		leading:  withoutChars(passwordAlphabet, formulaLeaders),
		random:   rand.Reader,
	}
}

// Generate returns a new password drawn uniformly from the alphabet. The
// first character never opens a spreadsheet formula, so ledger cells open as
// plain text.
func (g *PasswordGenerator) Generate() (string, error) {
	out := make([]byte, g.length)
	for i := range out {
		alphabet := g.alphabet
		if i == 0 {
			alphabet = g.leading
		}
		n, err := rand.Int(g.random, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

func withoutChars(s, drop string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(drop, r) {
			return -1
		}
		return r
	}, s)
}
