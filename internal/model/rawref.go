package model

import (
	"strconv"
	"strings"
)

// RefStep is one step in a document address: either an object key or an
// array index.
type RefStep struct {
	Key     string `json:"key,omitempty"`
	Index   int    `json:"index,omitempty"`
	IsIndex bool   `json:"is_index,omitempty"`
}

// RawRef addresses a node inside the original source document. It is captured
// at extraction time and resolved verbatim by the patch applier, so patches
// never re-derive addresses by key guessing.
type RawRef struct {
	Steps []RefStep `json:"steps"`
}

// Ref builds a RawRef from a mix of string keys and int indexes.
// Any other step type panics; addresses are always built from literals.
func Ref(steps ...any) RawRef {
	r := RawRef{Steps: make([]RefStep, 0, len(steps))}
	for _, s := range steps {
		switch v := s.(type) {
		case string:
			r.Steps = append(r.Steps, RefStep{Key: v})
		case int:
			r.Steps = append(r.Steps, RefStep{Index: v, IsIndex: true})
		default:
			panic("model: ref step must be string or int")
		}
	}
	return r
}

// Child returns a new RawRef extended with additional steps. The receiver is
// not modified.
func (r RawRef) Child(steps ...any) RawRef {
	child := Ref(steps...)
	out := RawRef{Steps: make([]RefStep, 0, len(r.Steps)+len(child.Steps))}
	out.Steps = append(out.Steps, r.Steps...)
	out.Steps = append(out.Steps, child.Steps...)
	return out
}

// JSONPointer renders the address as an RFC 6901 JSON Pointer.
func (r RawRef) JSONPointer() string {
	var b strings.Builder
	for _, s := range r.Steps {
		b.WriteByte('/')
		if s.IsIndex {
			b.WriteString(strconv.Itoa(s.Index))
			continue
		}
		b.WriteString(escapePointerToken(s.Key))
	}
	return b.String()
}

// IsZero reports whether the ref addresses nothing.
func (r RawRef) IsZero() bool { return len(r.Steps) == 0 }

func escapePointerToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}
