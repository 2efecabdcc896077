package types

import "go/token"

// Change describes one rewrite applied to a function body.
type Change struct {
	Pass     string         `json:"pass"`
	Func     string         `json:"func"`
	Kind     string         `json:"kind"` // "replace" or "delete"
	Filename string         `json:"filename"`
	Start    token.Position `json:"start"`
	End      token.Position `json:"end"`
	Old      string         `json:"old"`
	New      string         `json:"new,omitempty"`
}

// FuncResult is the outcome of optimizing one function.
type FuncResult struct {
	Func    string   `json:"func"`
	Rounds  int      `json:"rounds"`
	Skipped string   `json:"skipped,omitempty"`
	Changes []Change `json:"changes,omitempty"`
}

// FileResult is the outcome of optimizing one file. Source is the input the
// change positions refer to. Output holds the rewritten file and is only set
// when something changed.
type FileResult struct {
	Filename string       `json:"filename"`
	Funcs    []FuncResult `json:"funcs"`
	Source   []byte       `json:"-"`
	Output   []byte       `json:"-"`
}

// Changed reports whether any function was rewritten.
func (r FileResult) Changed() bool {
	for _, f := range r.Funcs {
		if len(f.Changes) > 0 {
			return true
		}
	}
	return false
}

// Changes flattens the changes of every function in the order they were
// applied.
func (r FileResult) Changes() []Change {
	var out []Change
	for _, f := range r.Funcs {
		out = append(out, f.Changes...)
	}
	return out
}
