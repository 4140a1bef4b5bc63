package index

import (
	"strings"

	"github.com/docuseek/indexcore/internal/ds"
)

// PropagationEngine enumerates, for a changed class, every related class
// whose stage state may need invalidation.
type PropagationEngine struct {
	hierarchy Hierarchy
}

func NewPropagationEngine(hierarchy Hierarchy) *PropagationEngine {
	return &PropagationEngine{
		hierarchy: hierarchy,
	}
}

// TraverseContexts visits the declared full-text contexts related to a class:
// the class's own context first, then each ancestor's context in root-ward
// order, then the context of every mixin found among the class's own
// descendants and among its ancestors' descendants. Overlapping ancestor and
// descendant sets can produce repeated visits for the same class, so visitors
// must be idempotent.
func (e *PropagationEngine) TraverseContexts(class string, visit func(class string, ctx *FullTextContext)) {
	if ctx, ok := e.hierarchy.Context(class); ok {
		visit(class, ctx)
	}

	related := ds.NewSet(e.hierarchy.DescendantsOf(class)...)
	for _, ancestor := range e.hierarchy.AncestorsOf(class) {
		if ctx, ok := e.hierarchy.Context(ancestor); ok {
			visit(ancestor, ctx)
		}
		for _, descendant := range e.hierarchy.DescendantsOf(ancestor) {
			if e.hierarchy.IsMixin(descendant) {
				related.Add(descendant)
			}
		}
	}

	for _, candidate := range related.ToSortedSlice(strings.Compare) {
		if !e.hierarchy.IsMixin(candidate) {
			continue
		}
		if ctx, ok := e.hierarchy.Context(candidate); ok {
			visit(candidate, ctx)
		}
	}
}

// CollectPropagate unions the 'propagate' sets of every context related to
// the class.
func (e *PropagationEngine) CollectPropagate(class string) ds.Set[string] {
	collected := ds.NewSet[string]()
	e.TraverseContexts(class, func(_ string, ctx *FullTextContext) {
		collected.Merge(ctx.Propagate)
	})
	return collected
}

// CollectPropagateClasses unions the 'propagateClasses' sets of every context
// related to the class.
func (e *PropagationEngine) CollectPropagateClasses(class string) ds.Set[string] {
	collected := ds.NewSet[string]()
	e.TraverseContexts(class, func(_ string, ctx *FullTextContext) {
		collected.Merge(ctx.PropagateClasses)
	})
	return collected
}
