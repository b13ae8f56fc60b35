package tools

import "testing"

func TestLineHashKnownValues(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"", "dc5"},
		{"hello", "167"},
		{"Hello", "d47"},
		{"hello world", "96f"},
		{"    return nil", "85a"},
		{"const answer = 42", "879"},
	}
	for _, tc := range cases {
		if got := LineHash(tc.line); got != tc.want {
			t.Errorf("LineHash(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestLineHashDeterministic(t *testing.T) {
	for _, line := range []string{"", "x", "some longer line with spaces", "\ttabbed"} {
		if LineHash(line) != LineHash(line) {
			t.Fatalf("LineHash(%q) not deterministic", line)
		}
	}
}

// The rendering is padded to a minimum of 2 digits but the 12-bit mask
// allows 3-digit values; both widths occur.
func TestLineHashVariableWidth(t *testing.T) {
	if got := LineHash("ia"); got != "a3" {
		t.Errorf("LineHash(%q) = %q, want 2-digit %q", "ia", got, "a3")
	}
	if got := LineHash("hello"); len(got) != 3 {
		t.Errorf("LineHash(%q) = %q, want 3 digits", "hello", got)
	}
}

func TestLineHashOrderSensitive(t *testing.T) {
	if LineHash("ab") == LineHash("ba") {
		t.Errorf("expected different hashes for reversed byte order")
	}
}
