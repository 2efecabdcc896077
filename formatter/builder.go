package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	tt "github.com/gnolang/gflow/internal/types"
)

const tabWidth = 8

// change kinds
const (
	KindReplace = "replace"
	KindDelete  = "delete"
)

var (
	replaceStyle = color.New(color.FgHiYellow, color.Bold)
	deleteStyle  = color.New(color.FgRed, color.Bold)
	passStyle    = color.New(color.FgYellow, color.Bold)
	funcStyle    = color.New(color.FgWhite)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	resultStyle  = color.New(color.FgGreen, color.Bold)
)

// changeFormatter is implemented once per change kind.
type changeFormatter interface {
	Message(change tt.Change) string
	ChangeTemplate() string
}

func getChangeFormatter(kind string) changeFormatter {
	switch kind {
	case KindDelete:
		return &DeleteFormatter{}
	default:
		return &ReplaceFormatter{}
	}
}

// GenerateFormattedChanges renders changes against the source lines their
// positions refer to.
func GenerateFormattedChanges(changes []tt.Change, lines []string) string {
	var builder strings.Builder
	for _, change := range changes {
		builder.WriteString(buildChange(change, lines, getChangeFormatter(change.Kind)))
	}
	return builder.String()
}

// SplitLines splits source into the lines GenerateFormattedChanges expects.
func SplitLines(source []byte) []string {
	return strings.Split(string(source), "\n")
}

/***** Change Formatter Builder *****/

type ChangeData struct {
	Kind            string
	Pass            string
	Func            string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	Result          string
	SnippetLines    []string
	CommonIndent    string
}

func buildChange(change tt.Change, lines []string, formatter changeFormatter) string {
	startLine := change.Start.Line
	endLine := change.End.Line
	maxLineNumWidth := calculateMaxLineNumWidth(endLine)
	padding := strings.Repeat(" ", maxLineNumWidth+1)

	var commonIndent string
	if isValidLineRange(startLine, endLine, lines) {
		commonIndent = findCommonIndent(lines[startLine-1 : endLine])
	}

	data := ChangeData{
		Kind:            change.Kind,
		Pass:            change.Pass,
		Func:            change.Func,
		Filename:        change.Filename,
		StartLine:       startLine,
		StartColumn:     change.Start.Column,
		EndLine:         endLine,
		EndColumn:       change.End.Column,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         padding,
		Message:         formatter.Message(change),
		Result:          rewrittenLine(change, lines, commonIndent),
		SnippetLines:    lines,
		CommonIndent:    commonIndent,
	}

	funcMap := template.FuncMap{
		"header":              header,
		"snippet":             codeSnippet,
		"underlineAndMessage": underlineAndMessage,
		"result":              result,
	}

	tmpl := template.Must(template.New("change").Funcs(funcMap).Parse(formatter.ChangeTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting change: %v", err)
	}
	return buf.String()
}

// rewrittenLine splices the new text into a single-line change. It returns
// "" when the change spans lines or the positions fall outside lines.
func rewrittenLine(change tt.Change, lines []string, commonIndent string) string {
	if change.Kind != KindReplace || change.Start.Line != change.End.Line || strings.Contains(change.New, "\n") {
		return ""
	}
	if !isValidLineRange(change.Start.Line, change.End.Line, lines) {
		return ""
	}
	line := lines[change.Start.Line-1]
	start, end := change.Start.Column-1, change.End.Column-1
	if start < 0 || end < start || end > len(line) {
		return ""
	}
	return strings.TrimPrefix(line[:start]+change.New+line[end:], commonIndent)
}

// utils functions used in the text templates

func header(kind, pass, fn string, maxLineNumWidth int, filename string, startLine, startColumn int) string {
	var endString string
	switch kind {
	case KindDelete:
		endString = deleteStyle.Sprintf("%s: ", kind)
	default:
		endString = replaceStyle.Sprintf("%s: ", kind)
	}

	endString += passStyle.Sprint(pass)
	if fn != "" {
		endString += funcStyle.Sprintf(" (%s)", fn)
	}
	endString += "\n"

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	endString += fileStyle.Sprintf("%s:%d:%d", filename, startLine, startColumn)

	return endString
}

func codeSnippet(snippetLines []string, startLine, endLine, maxLineNumWidth int, commonIndent, padding string) string {
	endString := lineStyle.Sprintf("%s|", padding) + "\n"

	for i := startLine; i <= endLine; i++ {
		if i-1 < 0 || i-1 >= len(snippetLines) {
			continue
		}

		line := strings.TrimPrefix(snippetLines[i-1], commonIndent)
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, i)

		endString += lineStyle.Sprintf("%s | ", lineNum) + line + "\n"
	}

	return endString
}

// underlineAndMessage marks the changed text. Changes spanning several lines
// are marked to the end of their first line.
func underlineAndMessage(message, padding string, startLine, endLine, startColumn, endColumn int, snippetLines []string, commonIndent string) string {
	endString := lineStyle.Sprintf("%s| ", padding)

	if !isValidLineRange(startLine, endLine, snippetLines) {
		endString += messageStyle.Sprint(message) + "\n"
		return endString
	}

	first := snippetLines[startLine-1]
	commonIndentWidth := calculateVisualColumn(commonIndent, len(commonIndent)+1)

	underlineStart := calculateVisualColumn(first, startColumn) - commonIndentWidth
	if underlineStart < 0 {
		underlineStart = 0
	}

	var underlineEnd int
	if startLine == endLine {
		underlineEnd = calculateVisualColumn(first, endColumn) - commonIndentWidth
	} else {
		underlineEnd = calculateVisualColumn(first, len(first)+1) - commonIndentWidth
	}
	underlineLength := underlineEnd - underlineStart
	if underlineLength < 1 {
		underlineLength = 1
	}

	endString += strings.Repeat(" ", underlineStart)
	endString += messageStyle.Sprint(strings.Repeat("~", underlineLength)) + "\n"

	endString += lineStyle.Sprintf("%s= ", padding)
	endString += messageStyle.Sprint(message) + "\n"

	return endString
}

func result(line, padding string, maxLineNumWidth, startLine int) string {
	if line == "" {
		return ""
	}

	endString := lineStyle.Sprintf("%s|", padding) + "\n"
	lineNum := fmt.Sprintf("%*d", maxLineNumWidth, startLine)
	endString += lineStyle.Sprintf("%s | ", lineNum) + resultStyle.Sprint(line) + "\n"
	return endString
}

func isValidLineRange(startLine, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		endLine > 0 &&
		startLine <= endLine &&
		startLine <= len(snippetLines) &&
		endLine <= len(snippetLines)
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn calculates the visual column position
// in a string. taking into account tab characters.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

// findCommonIndent finds the common indent in the code snippet.
func findCommonIndent(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	// find first non-empty line's indent
	var firstIndent []rune
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed != "" {
			firstIndent = []rune(line[:len(line)-len(trimmed)])
			break
		}
	}

	if len(firstIndent) == 0 {
		return ""
	}

	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}

		firstIndent = commonPrefix(firstIndent, []rune(line[:len(line)-len(trimmed)]))
		if len(firstIndent) == 0 {
			break
		}
	}

	return string(firstIndent)
}

// commonPrefix finds the common prefix of two strings.
func commonPrefix(a, b []rune) []rune {
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:minLen]
}
