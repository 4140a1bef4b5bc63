package docstore

import (
	"github.com/docuseek/indexcore/internal/storage"
)

// Document is a schema-less record belonging to a collection. The indexed
// representation of a document is tracked through ContentHash: a non-nil hash
// means the full-text index knows this document in its current form, nil means
// the document needs to be reindexed. Every write path in this package and in
// the migration layer clears the hash.
type Document struct {
	storage.StoredValue
	ID          string         `json:"id"`
	Class       string         `json:"class,omitempty"`
	ContentHash *string        `json:"content_hash"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// Reserved field names that address document metadata rather than user data.
const (
	FieldID    = "id"
	FieldClass = "class"
)

// Field resolves a filter field name against the document. The reserved names
// "id" and "class" address metadata, everything else addresses Fields.
func (d *Document) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return d.ID, true
	case FieldClass:
		return d.Class, d.Class != ""
	default:
		val, ok := d.Fields[name]
		return val, ok
	}
}

// Clone returns a deep-enough copy for applying updates: the fields map is
// copied one level deep, which is sufficient because updates replace whole
// field values rather than mutating nested structures in place.
func (d *Document) Clone() *Document {
	out := &Document{
		ID:          d.ID,
		Class:       d.Class,
		ContentHash: d.ContentHash,
	}
	out.SetVersion(d.Version())
	if d.Fields != nil {
		out.Fields = make(map[string]any, len(d.Fields))
		for k, v := range d.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
