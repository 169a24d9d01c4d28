package core

// PatchMode selects how new code is combined with the resolved element.
type PatchMode string

const (
	ModeReplace PatchMode = "replace"
	ModePrepend PatchMode = "prepend"
	ModeAppend  PatchMode = "append"
)

// ValidMode reports whether m is one of the supported patch modes.
func ValidMode(m PatchMode) bool {
	switch m {
	case ModeReplace, ModePrepend, ModeAppend:
		return true
	}
	return false
}

// PatchError is the structured error payload of a PatchResult.
type PatchError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PatchResult is the structured outcome of an apply operation.
type PatchResult struct {
	Status       string      `json:"status"` // "ok" or "error"
	LinesAdded   int         `json:"lines_added"`
	LinesRemoved int         `json:"lines_removed"`
	NewHash      string      `json:"new_hash,omitempty"`
	ModifiedCode string      `json:"modified_code,omitempty"`
	Diff         string      `json:"diff,omitempty"`
	Ambiguous    bool        `json:"ambiguous,omitempty"`
	Error        *PatchError `json:"error,omitempty"`
}

// OK reports whether the patch applied.
func (r PatchResult) OK() bool {
	return r.Status == "ok"
}

// ErrorResult builds an error PatchResult from a taxonomy error.
func ErrorResult(err error) PatchResult {
	return PatchResult{
		Status: "error",
		Error:  &PatchError{Kind: ErrorKind(err), Message: err.Error()},
	}
}
