package formatter

import tt "github.com/gnolang/gflow/internal/types"

// ReplaceFormatter shows a rewritten expression and the line it produces.
type ReplaceFormatter struct{}

func (f *ReplaceFormatter) Message(change tt.Change) string {
	return "replaced with " + change.New
}

func (f *ReplaceFormatter) ChangeTemplate() string {
	return `{{header .Kind .Pass .Func .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{result .Result .Padding .MaxLineNumWidth .StartLine}}
`
}
