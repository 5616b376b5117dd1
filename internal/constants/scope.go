package constants

import "fmt"

// Scope selects where saved collections live: next to the project, or in the
// user's home directory.
type Scope string

const (
	// ScopeLocal stores collections under <root>/.barw
	ScopeLocal Scope = "local"

	// ScopeGlobal stores collections under ~/.barw
	ScopeGlobal Scope = "global"
)

// Valid returns true if the scope is a recognized value.
func (s Scope) Valid() bool {
	switch s {
	case ScopeLocal, ScopeGlobal:
		return true
	}
	return false
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// ParseScope converts a flag value into a Scope. The empty string means local.
func ParseScope(v string) (Scope, error) {
	if v == "" {
		return ScopeLocal, nil
	}
	s := Scope(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid scope %q (valid: local, global)", v)
	}
	return s, nil
}
