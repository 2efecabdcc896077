package formatter

import tt "github.com/gnolang/gflow/internal/types"

type DeleteFormatter struct{}

func (f *DeleteFormatter) Message(tt.Change) string {
	return "removed"
}

func (f *DeleteFormatter) ChangeTemplate() string {
	return `{{header .Kind .Pass .Func .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent}}
`
}
