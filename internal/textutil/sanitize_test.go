package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"Alice", "alice"},
		{"video-1", "video-1"},
		{"a/b\\c", "a_b_c"},
		{"..", "unknown"},
		{"", "unknown"},
		{"  spaced out  ", "spaced_out"},
		{"name.2024", "name.2024"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
