package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		path, override string
		want           string
	}{
		{"pkg/module.py", "", "Python"},
		{"MAIN.GO", "", "Go"},
		{"web/app.tsx", "", "TypeScript"},
		{"Makefile", "", "source"},
		{"notes.txt", "", "source"},
		{"module.py", "go", "Go"},
		{"module.py", "Elixir", "Elixir"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, detectLanguage(tc.path, tc.override).Name, "path=%q override=%q", tc.path, tc.override)
	}
}

func TestDetectLanguage_UnknownOverrideKeepsGenericDocStyle(t *testing.T) {
	l := detectLanguage("x.ex", "Elixir")
	require.Equal(t, genericLanguage.DocStyle, l.DocStyle)
}
