package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("entity not found")
	// ErrAmbiguous matches every *AmbiguousError.
	ErrAmbiguous = errors.New("entity identifier is ambiguous")
	// ErrAmbiguousScope matches every *AmbiguousScopeError.
	ErrAmbiguousScope = errors.New("server must be specified")
)

// Candidate is a name and ID pair listed by an ambiguity error.
type Candidate struct {
	Name string
	ID   string
}

// NotFoundError reports that no entity of Kind matched Identifier within
// Scope. Available lists every entity of that kind in the scope.
type NotFoundError struct {
	Kind       Kind
	Identifier string
	// Scope is the server name; empty for server lookups.
	Scope     string
	Available []string
}

func (e *NotFoundError) Error() string {
	ki := e.Kind.info()
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q not found", ki.label, e.Identifier)
	if e.Scope != "" {
		fmt.Fprintf(&b, " in server %q", e.Scope)
	}
	avail := "none"
	if len(e.Available) > 0 {
		avail = strings.Join(e.Available, ", ")
	}
	fmt.Fprintf(&b, ". Available %s: %s", ki.plural, avail)
	return b.String()
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousError reports that more than one entity of Kind matched
// Identifier. Candidates lists exactly the matching entities.
type AmbiguousError struct {
	Kind       Kind
	Identifier string
	Scope      string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	ki := e.Kind.info()
	list := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		list[i] = fmt.Sprintf("%s (ID: %s)", c.Name, c.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple %s found with name %q", ki.plural, e.Identifier)
	if e.Scope != "" {
		fmt.Fprintf(&b, " in server %q", e.Scope)
	}
	fmt.Fprintf(&b, ": %s. Please specify the %s ID.", strings.Join(list, ", "), ki.noun)
	return b.String()
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }

// AmbiguousScopeError reports that no server was named and the session does
// not belong to exactly one.
type AmbiguousScopeError struct {
	Servers []string
}

func (e *AmbiguousScopeError) Error() string {
	if len(e.Servers) == 0 {
		return "Bot is not a member of any server"
	}
	return "Bot is in multiple servers. Please specify server name or ID. Available servers: " + strings.Join(e.Servers, ", ")
}

func (e *AmbiguousScopeError) Is(target error) bool { return target == ErrAmbiguousScope }
