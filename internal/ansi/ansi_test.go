package ansi

import (
	"bytes"
	"fmt"
	"testing"
)

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"styled", Bold + Green + "✓ done" + Reset, "✓ done"},
		{"mixed", "a" + Dim + "b" + Reset + "c", "abc"},
		{"cursor", "\033[3Aup", "up"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlainWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	in := Red + Bold + "error: " + Reset + "boom\n"
	n, err := fmt.Fprint(PlainWriter{W: &buf}, in)
	if err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	if n != len(in) {
		t.Errorf("n = %d, want %d", n, len(in))
	}
	if buf.String() != "error: boom\n" {
		t.Errorf("got %q", buf.String())
	}
}
