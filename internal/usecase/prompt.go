package usecase

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"source-annotator/internal/domain"
)

func buildSystemPrompt(lang Language) domain.ChatMessage {
	return domain.ChatMessage{
		Role: domain.RoleSystem,
		Content: strings.Join([]string{
			fmt.Sprintf("You are a software architect and senior %s developer.", lang.subject()),
			"",
			"Strengths:",
			fmt.Sprintf("- Explaining complex %s constructs clearly to fellow developers.", lang.subject()),
			"- Adding types and generics to operations and classes to bind types as tightly as the language allows.",
			"",
			"You help with development, software architecture and documentation.",
		}, "\n"),
	}
}

// buildCommentRequest reads path and embeds its text in the annotation
// request. Any read failure, including non UTF-8 content, is a READ_ERROR.
func buildCommentRequest(path string, lang Language) (domain.ChatMessage, error) {
	source, err := readSource(path)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return commentRequestFor(source, lang), nil
}

func readSource(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", newError(ErrorRead, "file_read_error", err)
	}
	if !utf8.Valid(raw) {
		return "", newError(ErrorRead, "file_not_utf8", fmt.Errorf("usecase: %s is not valid UTF-8", path))
	}
	return string(raw), nil
}

// commentRequestFor embeds source verbatim; it must never be normalised.
func commentRequestFor(source string, lang Language) domain.ChatMessage {
	marker := strings.ToLower(lang.Name)
	return domain.ChatMessage{
		Role: domain.RoleUser,
		Content: strings.Join([]string{
			fmt.Sprintf("Hello %s expert,", lang.subject()),
			"",
			fmt.Sprintf("Analyze the %s file below and add the comments needed to make it easier to understand:", lang.Name),
			"",
			instructions(lang),
			"",
			"The file to be analyzed is:",
			"",
			fmt.Sprintf("----start %s file----", marker),
			source,
			fmt.Sprintf("----end %s file----", marker),
			"",
			outputRules(lang),
		}, "\n"),
	}
}

func instructions(lang Language) string {
	return strings.Join([]string{
		fmt.Sprintf("1) Identify the purpose of the file and its main types and add a top-level description as %s.", lang.DocStyle),
		fmt.Sprintf("2) Determine the purpose of each operation and its parameters, then document each one with %s.", lang.DocStyle),
		"3) Add type annotations and generics to bind types as much as possible.",
		"4) Do NOT modify the existing logic; only add comments and type annotations.",
	}, "\n")
}

func outputRules(lang Language) string {
	return strings.Join([]string{
		fmt.Sprintf("Return only the %s code with comments. Ensure the following:", lang.Name),
		"- The returned code must still compile.",
		"- Do not include extraneous text such as 'Here is the commented code.'",
		"- Do not wrap the response in ``` fence markers.",
	}, "\n")
}
