package gen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestControlDigitsMatchRealNumbers(t *testing.T) {
	for _, inn := range []string{"7842024502", "7842439200", "9405001425", "7707083893"} {
		if got := LegalControl(inn[:9]); got != inn[9:] {
			t.Fatalf("%s: control %s", inn, got)
		}
		if got := LegalControl(inn); got != inn[9:] {
			t.Fatalf("%s: control from full number %s", inn, got)
		}
	}
	for _, inn := range []string{"245801671843", "810700624122", "421710073190", "500100732259"} {
		if got := IndividualControl(inn[:10]); got != inn[10:] {
			t.Fatalf("%s: control %s", inn, got)
		}
		if got := IndividualControl(inn); got != inn[10:] {
			t.Fatalf("%s: control from full number %s", inn, got)
		}
	}
}

func TestGeneratedINNsValidate(t *testing.T) {
	for i := 0; i < 200; i++ {
		if ul := LegalINN(); len(ul) != 10 || !ValidINN(ul) {
			t.Fatalf("bad legal inn %q", ul)
		}
		if fl := IndividualINN(); len(fl) != 12 || !ValidINN(fl) {
			t.Fatalf("bad individual inn %q", fl)
		}
	}
}

func TestValidINNRejects(t *testing.T) {
	for _, inn := range []string{"", "123", "7842024503", "78420245O2", "245801671844"} {
		if ValidINN(inn) {
			t.Fatalf("%q should be invalid", inn)
		}
	}
}

func TestRandomStrings(t *testing.T) {
	d := Digits(32)
	if len(d) != 32 || strings.Trim(d, "0123456789") != "" {
		t.Fatalf("digits = %q", d)
	}
	l := Letters(16)
	if len(l) != 16 || strings.Trim(l, "abcdefghijklmnopqrstuvwxyz") != "" {
		t.Fatalf("letters = %q", l)
	}
	if Digits(0) != "" || Letters(-1) != "" {
		t.Fatalf("non-positive length should be empty")
	}
	if _, err := uuid.Parse(UUID()); err != nil {
		t.Fatalf("uuid: %v", err)
	}
}
