package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"source-annotator/internal/domain"
)

func writeSource(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBuildSystemPrompt(t *testing.T) {
	msg := buildSystemPrompt(Language{Name: "Python", DocStyle: "docstrings"})
	require.Equal(t, domain.RoleSystem, msg.Role)
	require.Contains(t, msg.Content, "software architect and senior Python developer")
}

func TestBuildCommentRequest_EmbedsSourceVerbatim(t *testing.T) {
	sources := []string{
		"def f(x):\n    return x\n",
		"  leading spaces\n\n\n\ttabs\r\nand CRLF  \n",
		"print('```python')\n",
		"",
		"ünïcödé = '✓'\n",
	}
	for _, src := range sources {
		path := writeSource(t, "mod.py", src)
		msg, err := buildCommentRequest(path, detectLanguage(path, ""))
		require.NoError(t, err)
		require.Equal(t, domain.RoleUser, msg.Role)
		require.Contains(t, msg.Content, "----start python file----\n"+src+"\n----end python file----")
	}
}

func TestBuildCommentRequest_Instructions(t *testing.T) {
	path := writeSource(t, "main.go", "package main\n")
	msg, err := buildCommentRequest(path, detectLanguage(path, ""))
	require.NoError(t, err)
	for _, want := range []string{
		"Hello Go expert",
		"top-level description as Go doc comments",
		"each operation and its parameters",
		"type annotations",
		"Do NOT modify the existing logic",
		"Return only the Go code",
		"fence markers",
	} {
		require.Contains(t, msg.Content, want)
	}
}

func TestBuildCommentRequest_MissingFile(t *testing.T) {
	_, err := buildCommentRequest(filepath.Join(t.TempDir(), "missing.py"), genericLanguage)
	var ue *Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, ErrorRead, ue.Code)
	require.Equal(t, "file_read_error", ue.Reason)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildCommentRequest_NotUTF8(t *testing.T) {
	path := writeSource(t, "latin1.py", string([]byte{'x', '=', 0xff, 0xfe, '\n'}))
	_, err := buildCommentRequest(path, genericLanguage)
	var ue *Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, ErrorRead, ue.Code)
	require.Equal(t, "file_not_utf8", ue.Reason)
}

func TestCommentRequestFor_GenericLanguage(t *testing.T) {
	msg := commentRequestFor("x", genericLanguage)
	require.True(t, strings.Contains(msg.Content, "----start source file----\nx\n----end source file----"))
	require.Contains(t, msg.Content, "documentation comments")
	require.Contains(t, msg.Content, "Hello software expert,")
	require.NotContains(t, msg.Content, "source expert")
}

func TestBuildSystemPrompt_GenericLanguage(t *testing.T) {
	msg := buildSystemPrompt(detectLanguage("Makefile", ""))
	require.Contains(t, msg.Content, "senior software developer")
	require.Contains(t, msg.Content, "complex software constructs")
	require.NotContains(t, msg.Content, "senior source developer")
}
