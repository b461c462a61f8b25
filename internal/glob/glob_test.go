package glob

import "testing"

func TestMatchPath(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"/bin/ls", "/bin/ls", true},
		{"/bin/ls", "/bin/cat", false},
		{"/bin/*", "/bin/ls", true},
		{"/bin/*", "/usr/bin/ls", false},
		{"/usr/bin/pip[0-9]", "/usr/bin/pip3", true},
		{"/opt/**/run", "/opt/app/v2/run", true},
		{"[", "[", true},  // literal equality short-circuits the bad pattern
		{"[", "x", false}, // invalid pattern never matches, never panics
	}
	for _, tt := range cases {
		if got := MatchPath(tt.pattern, tt.path); got != tt.want {
			t.Errorf("MatchPath(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestMatchArgs(t *testing.T) {
	cases := []struct {
		pattern string
		argv    []string
		want    bool
	}{
		{"restart *", []string{"restart", "nginx"}, true},
		{"restart *", []string{"stop", "nginx"}, false},
		{"", nil, true},
		{"-l", []string{"-l"}, true},
	}
	for _, tt := range cases {
		if got := MatchArgs(tt.pattern, tt.argv); got != tt.want {
			t.Errorf("MatchArgs(%q, %v) = %v, want %v", tt.pattern, tt.argv, got, tt.want)
		}
	}
}
