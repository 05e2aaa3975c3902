package fieldvalue

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// canonical is the JSON-marshalable shape Canonicalize produces: plain Go
// values with map keys pre-sorted via ordered slices, so encoding/json's
// normal (also sorted) map-key output is redundant but never contradicts it.
type canonical struct {
	Kind string          `json:"kind"`
	Str  string          `json:"str,omitempty"`
	Num  float64         `json:"num,omitempty"`
	Bool bool            `json:"bool,omitempty"`
	Date string          `json:"date,omitempty"`
	List []canonical     `json:"list,omitempty"`
	Obj  []canonicalPair `json:"obj,omitempty"`
	Link *canonicalLink  `json:"link,omitempty"`
}

type canonicalPair struct {
	Key   string    `json:"key"`
	Value canonical `json:"value"`
}

type canonicalLink struct {
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

func kindName(k Kind) string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindLink:
		return "link"
	default:
		return "null"
	}
}

func toCanonical(v Value) canonical {
	c := canonical{Kind: kindName(v.Kind)}
	switch v.Kind {
	case KindString:
		c.Str = v.Str
	case KindNumber:
		c.Num = v.Num
	case KindBool:
		c.Bool = v.Bool
	case KindDate:
		c.Date = v.Date.UTC().Format("2006-01-02T15:04:05.000Z")
	case KindList:
		c.List = make([]canonical, len(v.List))
		for i, item := range v.List {
			c.List[i] = toCanonical(item)
		}
	case KindObject:
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		c.Obj = make([]canonicalPair, len(keys))
		for i, k := range keys {
			c.Obj[i] = canonicalPair{Key: k, Value: toCanonical(v.Object[k])}
		}
	case KindLink:
		c.Link = &canonicalLink{LinkType: string(v.Link.LinkType), ID: v.Link.ID}
	}
	return c
}

func toCanonicalLocalized(l Localized) []canonicalPair {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]canonicalPair, len(keys))
	for i, k := range keys {
		pairs[i] = canonicalPair{Key: k, Value: toCanonical(l[k])}
	}
	return pairs
}

// Canonicalize renders a Localized value to a deterministic byte stream:
// same logical value, same bytes, regardless of map iteration order.
func Canonicalize(l Localized) []byte {
	// json.Marshal never errors on this closed, cycle-free shape.
	b, _ := json.Marshal(toCanonicalLocalized(l))
	return b
}

// Hash returns the sha256 hex digest of l's canonical serialization.
func Hash(l Localized) string {
	sum := sha256.Sum256(Canonicalize(l))
	return hex.EncodeToString(sum[:])
}

// HashFields computes per-field content hashes over the supplied translatable
// fields, producing a fieldId -> hash map suitable for change detection.
func HashFields(fields map[string]Localized) map[string]string {
	hashes := make(map[string]string, len(fields))
	for fieldID, value := range fields {
		hashes[fieldID] = Hash(value)
	}
	return hashes
}

// FieldChangeType is the added/modified/deleted classification
// DiffFieldHashes assigns to a field when comparing current against stored.
type FieldChangeType string

const (
	FieldAdded    FieldChangeType = "added"
	FieldModified FieldChangeType = "modified"
	FieldDeleted  FieldChangeType = "deleted"
)

type FieldChange struct {
	FieldID    string
	ChangeType FieldChangeType
}

func DiffFieldHashes(stored, current map[string]string) []FieldChange {
	changes := make([]FieldChange, 0)
	for fieldID, currentHash := range current {
		storedHash, existed := stored[fieldID]
		if !existed {
			changes = append(changes, FieldChange{FieldID: fieldID, ChangeType: FieldAdded})
			continue
		}
		if storedHash != currentHash {
			changes = append(changes, FieldChange{FieldID: fieldID, ChangeType: FieldModified})
		}
	}
	for fieldID := range stored {
		if _, stillPresent := current[fieldID]; !stillPresent {
			changes = append(changes, FieldChange{FieldID: fieldID, ChangeType: FieldDeleted})
		}
	}
	return changes
}
