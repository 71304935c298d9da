//go:build windows

package common

import "testing"

func TestDefaultPipePath(t *testing.T) {
	want := `\\.\pipe\` + DefaultPipeName
	if got := DefaultPipePath(); got != want {
		t.Errorf("DefaultPipePath() = %q, want %q", got, want)
	}
}

func TestPipePath(t *testing.T) {
	cases := []struct {
		name string
		env  string
		want string
	}{
		{"default", "", DefaultPipePath()},
		{"bare name gets prefixed", "custom-pipe", `\\.\pipe\custom-pipe`},
		{"full path unchanged", `\\.\pipe\already-full`, `\\.\pipe\already-full`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv(PipeNameEnv, c.env)
			if got := PipePath(); got != c.want {
				t.Errorf("PipePath() = %q, want %q", got, c.want)
			}
		})
	}
}
