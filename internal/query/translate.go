// Package query maps the abstract migration query language onto the document
// store's native filter representation.
package query

import (
	"regexp"
	"strings"

	"github.com/docuseek/indexcore/internal/docstore"
)

// Query is the abstract query used by migration scripts: a field maps to a
// scalar for equality, to {like: pattern} for wildcard matching, or to any
// other operator document, which is forwarded to the store verbatim.
type Query map[string]any

// likeOperator is the only operator the translator itself understands.
const likeOperator = "like"

// Translate converts an abstract query to a native filter. It is pure and
// performs no validation: operator documents other than {like: ...} pass
// through unmodified and malformed ones surface as store-level query errors.
func Translate(q Query) docstore.Filter {
	filter := make(docstore.Filter, len(q))
	for field, cond := range q {
		if operators, ok := cond.(map[string]any); ok {
			if pattern, ok := likePattern(operators); ok {
				filter[field] = map[string]any{"$regex": LikeToRegexp(pattern)}
				continue
			}
		}
		filter[field] = cond
	}
	return filter
}

func likePattern(operators map[string]any) (string, bool) {
	if len(operators) != 1 {
		return "", false
	}
	pattern, ok := operators[likeOperator].(string)
	return pattern, ok
}

// LikeToRegexp converts a like pattern to an anchored, case-insensitive
// regular expression. Each '%' wildcard matches any sequence of characters;
// everything else matches literally.
func LikeToRegexp(pattern string) string {
	parts := strings.Split(pattern, "%")
	quoted := make([]string, len(parts))
	for idx, part := range parts {
		quoted[idx] = regexp.QuoteMeta(part)
	}
	return "(?i)^" + strings.Join(quoted, ".*") + "$"
}
