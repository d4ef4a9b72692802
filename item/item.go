// Package item defines the collection kinds and the record codec shared by
// every storage backend: building a stored document from a caller payload,
// merging update patches, and stripping backend housekeeping fields.
package item

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Doc is an item document. Documents are open maps: unknown caller-supplied
// fields are carried through and persisted as-is.
type Doc = map[string]any

// Kind is a collection kind. Each kind has its own field schema and its own
// stored collection.
type Kind string

const (
	Shopping Kind = "shopping"
	Larder   Kind = "larder"
	Meal     Kind = "meal"
)

// Kinds returns every collection kind.
func Kinds() []Kind {
	return []Kind{Shopping, Larder, Meal}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Shopping, Larder, Meal:
		return k, nil
	}
	return "", fmt.Errorf("unknown collection kind: %q", s)
}

// Collection returns the stored collection name for the kind, e.g.
// "shopping_items".
func (k Kind) Collection() string {
	return string(k) + "_items"
}

// Label returns the human-facing name used in API messages.
func (k Kind) Label() string {
	switch k {
	case Shopping:
		return "Shopping item"
	case Larder:
		return "Larder item"
	case Meal:
		return "Meal"
	}
	return "Item"
}

// Reserved document fields. id and type are immutable after creation.
const (
	FieldID         = "id"
	FieldType       = "type"
	FieldName       = "name"
	FieldCreatedAt  = "createdAt"
	FieldModifiedAt = "modifiedAt"
)

// ErrNameRequired is returned by New when the payload has no usable name.
var ErrNameRequired = errors.New("item name is required")

// GenerateID returns a process-unique id: a millisecond timestamp joined to
// a random four-digit suffix. Uniqueness is probabilistic, which is enough
// here since nothing writes the same collection concurrently.
func GenerateID() string {
	ms := time.Now().UTC().UnixMilli()
	return fmt.Sprintf("%d-%d", ms, 1000+rand.IntN(9000))
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// New builds a stored document from a caller payload. The name is trimmed
// and required; kind-specific fields get their defaults; id, type and the
// timestamps are stamped server-side. A caller-supplied id is discarded.
func New(kind Kind, payload Doc) (Doc, error) {
	doc := make(Doc, len(payload)+5)
	for k, v := range payload {
		doc[k] = v
	}

	name, _ := doc[FieldName].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	doc[FieldName] = name

	switch kind {
	case Shopping:
		if _, ok := doc["inCart"].(bool); !ok {
			doc["inCart"] = false
		}
	case Larder:
		if _, ok := doc["reorder"].(bool); !ok {
			doc["reorder"] = false
		}
	case Meal:
		ingredients, _ := doc["ingredients"].(string)
		doc["ingredients"] = strings.TrimSpace(ingredients)
	}

	now := timestamp()
	doc[FieldID] = GenerateID()
	doc[FieldType] = string(kind)
	doc[FieldCreatedAt] = now
	doc[FieldModifiedAt] = now
	return doc, nil
}

// ApplyUpdate merges a patch into an existing document and refreshes
// modifiedAt. The id and type fields are immutable: patch entries for them
// are silently skipped, never an error.
func ApplyUpdate(existing, patch Doc) Doc {
	doc := make(Doc, len(existing)+len(patch))
	for k, v := range existing {
		doc[k] = v
	}
	for k, v := range patch {
		if k == FieldID || k == FieldType {
			continue
		}
		doc[k] = v
	}
	doc[FieldModifiedAt] = timestamp()
	return doc
}

// Clean strips backend housekeeping fields (leading-underscore keys and the
// ttl field) before a document leaves the service. Idempotent.
func Clean(doc Doc) Doc {
	out := make(Doc, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, "_") || k == "ttl" {
			continue
		}
		out[k] = v
	}
	return out
}
