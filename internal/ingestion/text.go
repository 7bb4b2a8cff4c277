// Package ingestion turns uploaded or on-disk profile and job description
// sources into clean text for the request form.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	spaceRun       = regexp.MustCompile(`\s+`)
	blankLineRun   = regexp.MustCompile(`\n\n\n+`)
	trailingBlanks = regexp.MustCompile(`[ \t]+\n`)
)

// resumeSections are headings that PDF extraction tends to glue onto the
// previous line.
var resumeSections = []string{
	"Profile:", "Technical Skills:", "Projects:", "Education:", "Languages:", "Experience:",
	"SUMMARY", "TECHNICAL SKILLS", "PROJECTS", "EDUCATION", "LANGUAGES", "EXPERIENCE",
	"Technical Skills", "Projects", "Education", "Languages", "Experience", "Profile",
}

var sectionBreak = buildSectionBreak()

func buildSectionBreak() *regexp.Regexp {
	quoted := make([]string, len(resumeSections))
	for i, s := range resumeSections {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`(\S)[ \t]+(` + strings.Join(quoted, "|") + `)\b`)
}

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := strings.Join(cleaned, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		return strings.Repeat(" ", indent) + trimmed
	}

	// Collapse internal whitespace but keep leading indentation
	return strings.Repeat(" ", indent) + spaceRun.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}

// FixResumeLayout moves well-known resume section headings onto their own
// line and drops trailing blanks, then applies CleanText.
func FixResumeLayout(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = sectionBreak.ReplaceAllString(text, "$1\n$2")
	text = trailingBlanks.ReplaceAllString(text, "\n")
	return CleanText(text)
}

// ReadTextFile reads a text file and returns its cleaned content with metadata.
func ReadTextFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := CleanText(string(content))
	if text == "" {
		return "", nil, fmt.Errorf("file %s contains no text", path)
	}
	return text, NewMetadata(text, path, SourceText, 0), nil
}
