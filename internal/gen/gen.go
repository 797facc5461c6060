// Package gen produces test identifiers: Russian taxpayer numbers (INN),
// random digit and letter strings, UUIDs.
package gen

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

var (
	legalWeights = []int{2, 4, 10, 3, 5, 9, 4, 6, 8}
	firstWeights = []int{7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
	lastWeights  = []int{3, 7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
)

// LegalINN returns a random valid 10-digit INN of a legal entity.
func LegalINN() string {
	body := Digits(9)
	return body + LegalControl(body)
}

// IndividualINN returns a random valid 12-digit INN of an individual.
func IndividualINN() string {
	body := Digits(10)
	return body + IndividualControl(body)
}

// LegalControl computes the control digit for a legal-entity INN. inn may
// be the 9-digit body or a full 10-digit number.
func LegalControl(inn string) string {
	if len(inn) == 10 {
		inn = inn[:9]
	}
	return controlDigit(legalWeights, inn)
}

// IndividualControl computes both control digits for an individual INN. inn
// may be the 10-digit body or a full 12-digit number.
func IndividualControl(inn string) string {
	if len(inn) == 12 {
		inn = inn[:10]
	}
	first := controlDigit(firstWeights, inn)
	second := controlDigit(lastWeights, inn+first)
	return first + second
}

// ValidINN checks length, digits and control digits.
func ValidINN(inn string) bool {
	if strings.IndexFunc(inn, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return false
	}
	switch len(inn) {
	case 10:
		return LegalControl(inn) == inn[9:]
	case 12:
		return IndividualControl(inn) == inn[10:]
	default:
		return false
	}
}

func controlDigit(weights []int, digits string) string {
	sum := 0
	for i, w := range weights {
		if i >= len(digits) {
			break
		}
		sum += w * int(digits[i]-'0')
	}
	return fmt.Sprint(sum % 11 % 10)
}

// Digits returns n random decimal digits.
func Digits(n int) string {
	return random(n, "0123456789")
}

// Letters returns n random lowercase ASCII letters.
func Letters(n int) string {
	return random(n, "abcdefghijklmnopqrstuvwxyz")
}

// UUID returns a new random UUID string.
func UUID() string {
	return uuid.NewString()
}

func random(n int, alphabet string) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
