package extraction

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	bulletMarkers = []string{"• ", "· ", "▪ ", "‣ ", "* "}
)

// CleanText normalizes pasted or exported CV text: line endings become LF,
// runs of spaces collapse, bullet glyphs become "- " and at most one blank
// line separates blocks. Line structure is kept since it carries section
// boundaries the model relies on.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}
	content = blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(content)
}

func cleanLine(line string) string {
	line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return "- " + strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return line
}

// ReadText reads a plain-text CV from path and cleans it
func ReadText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return CleanText(string(content)), nil
}
