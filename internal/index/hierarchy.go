package index

import (
	"github.com/docuseek/indexcore/internal/ds"
)

// FullTextContext is a class's declared full-text indexing context: the sets
// of related classes whose stage state must also be considered when a
// document of this class changes.
type FullTextContext struct {
	Propagate        ds.Set[string]
	PropagateClasses ds.Set[string]
}

// Hierarchy is the read-only ancestor/descendant/mixin graph over document
// classes. It's supplied by the schema component that owns the class model;
// this package only traverses it.
type Hierarchy interface {
	// AncestorsOf returns the ancestors of a class in root-ward order.
	AncestorsOf(class string) []string
	// DescendantsOf returns every descendant of a class.
	DescendantsOf(class string) []string
	// IsMixin reports whether a class is a mixin, i.e. an auxiliary type
	// attachable to documents outside single static inheritance.
	IsMixin(class string) bool
	// Context returns the class's declared full-text context, if any.
	Context(class string) (*FullTextContext, bool)
}
