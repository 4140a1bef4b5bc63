package docstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/docuseek/indexcore/internal/canon"
)

// Filter is the store's native filter representation. Each entry maps a field
// name to either a scalar (structural equality) or an operator document such
// as {"$regex": "(?i)^ab.*c$"}. Filters are not validated up front; unknown
// operator shapes surface as errors when the filter is compiled for a query.
type Filter map[string]any

// ErrUnknownOperator indicates that a filter contained an operator this store
// doesn't implement.
var ErrUnknownOperator = errors.New("unknown filter operator")

type predicate func(doc *Document) bool

type matcher struct {
	preds []predicate
}

func (m *matcher) matches(doc *Document) bool {
	for _, pred := range m.preds {
		if !pred(doc) {
			return false
		}
	}
	return true
}

// compileFilter turns a filter into an evaluable matcher. Compilation is where
// malformed filters fail, mirroring a query error from a remote store.
func compileFilter(filter Filter) (*matcher, error) {
	m := &matcher{}
	for field, cond := range filter {
		switch cond := cond.(type) {
		case map[string]any:
			for op, arg := range cond {
				pred, err := compileOperator(field, op, arg)
				if err != nil {
					return nil, err
				}
				m.preds = append(m.preds, pred)
			}
		case Filter:
			for op, arg := range cond {
				pred, err := compileOperator(field, op, arg)
				if err != nil {
					return nil, err
				}
				m.preds = append(m.preds, pred)
			}
		default:
			m.preds = append(m.preds, equalityPredicate(field, cond))
		}
	}
	return m, nil
}

func equalityPredicate(field string, expected any) predicate {
	return func(doc *Document) bool {
		val, ok := doc.Field(field)
		if !ok {
			return expected == nil
		}
		return canon.Equal(val, expected)
	}
}

func compileOperator(field, op string, arg any) (predicate, error) {
	switch op {
	case "$eq":
		return equalityPredicate(field, arg), nil
	case "$ne":
		eq := equalityPredicate(field, arg)
		return func(doc *Document) bool { return !eq(doc) }, nil
	case "$regex":
		pattern, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("field %q: $regex requires a string pattern", field)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid $regex: %w", field, err)
		}
		return func(doc *Document) bool {
			val, ok := doc.Field(field)
			if !ok {
				return false
			}
			s, ok := val.(string)
			return ok && re.MatchString(s)
		}, nil
	case "$in":
		candidates, ok := arg.([]any)
		if !ok {
			return nil, fmt.Errorf("field %q: $in requires an array", field)
		}
		return func(doc *Document) bool {
			val, ok := doc.Field(field)
			if !ok {
				return false
			}
			for _, candidate := range candidates {
				if canon.Equal(val, candidate) {
					return true
				}
			}
			return false
		}, nil
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q: $exists requires a boolean", field)
		}
		return func(doc *Document) bool {
			_, present := doc.Field(field)
			return present == want
		}, nil
	case "$gt", "$gte", "$lt", "$lte":
		return orderingPredicate(field, op, arg)
	default:
		return nil, fmt.Errorf("field %q, operator %q: %w", field, op, ErrUnknownOperator)
	}
}

func orderingPredicate(field, op string, arg any) (predicate, error) {
	bound, ok := canon.Canonicalize(arg)
	if !ok {
		return nil, fmt.Errorf("field %q: %s argument has no canonical form", field, op)
	}
	return func(doc *Document) bool {
		val, present := doc.Field(field)
		if !present {
			return false
		}
		cmp, comparable := compareValues(val, bound)
		if !comparable {
			return false
		}
		switch op {
		case "$gt":
			return cmp > 0
		case "$gte":
			return cmp >= 0
		case "$lt":
			return cmp < 0
		case "$lte":
			return cmp <= 0
		}
		return false
	}, nil
}

// compareValues orders two values when both are numbers or both are strings.
func compareValues(a, b any) (int, bool) {
	ca, ok := canon.Canonicalize(a)
	if !ok {
		return 0, false
	}
	cb, ok := canon.Canonicalize(b)
	if !ok {
		return 0, false
	}

	if an, ok := ca.(float64); ok {
		bn, ok := cb.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	if as, ok := ca.(string); ok {
		bs, ok := cb.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}

	return 0, false
}
