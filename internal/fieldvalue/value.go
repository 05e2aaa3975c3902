// Package fieldvalue models a single CMS field value as a tagged union so
// every transformation the engine performs (translate, empty, copy, rewrite)
// is a total function over one type instead of a family of ad-hoc any checks.
package fieldvalue

import "time"

// Kind discriminates the shape held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindList
	KindObject
	KindLink
)

// LinkType identifies what a Link points at.
type LinkType string

const (
	LinkTypeEntry LinkType = "Entry"
	LinkTypeAsset LinkType = "Asset"
)

// Link references another entry or asset by id.
type Link struct {
	LinkType LinkType
	ID       string
}

// Value is a single field value: exactly one of the fields matching Kind is
// meaningful, the rest are zero. Keeping it a flat struct (rather than an
// interface) keeps canonicalisation and hashing allocation-free for scalars.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	Bool   bool
	Date   time.Time
	List   []Value
	Object map[string]Value
	Link   Link
}

// Localized is a field value keyed by locale tag, mirroring the CMS's
// locale-keyed field representation.
type Localized map[string]Value

func Null() Value { return Value{Kind: KindNull} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

func Object(fields map[string]Value) Value { return Value{Kind: KindObject, Object: fields} }

func EntryLink(id string) Value { return Value{Kind: KindLink, Link: Link{LinkType: LinkTypeEntry, ID: id}} }

func AssetLink(id string) Value { return Value{Kind: KindLink, Link: Link{LinkType: LinkTypeAsset, ID: id}} }

// IsEmpty reports whether the value carries no meaningful content.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == ""
	case KindList:
		return len(v.List) == 0
	case KindObject:
		return len(v.Object) == 0
	default:
		return false
	}
}

// IsLink reports whether the value is a single link.
func (v Value) IsLink() bool { return v.Kind == KindLink }

// IsListOfLinks reports whether the value is a non-empty list whose elements
// are all links (the shape of a Contentful "Array of Link" field).
func (v Value) IsListOfLinks() bool {
	if v.Kind != KindList || len(v.List) == 0 {
		return false
	}
	for _, item := range v.List {
		if !item.IsLink() {
			return false
		}
	}
	return true
}

// Links returns every link reachable one level down from v: v itself if it
// is a link, or each link element if v is a list of links. The CMS never
// nests links more than one level inside a field (a Link, or an Array of
// Link), so this intentionally does not recurse into Object values.
func (v Value) Links() []Link {
	switch v.Kind {
	case KindLink:
		return []Link{v.Link}
	case KindList:
		links := make([]Link, 0, len(v.List))
		for _, item := range v.List {
			if item.IsLink() {
				links = append(links, item.Link)
			}
		}
		return links
	default:
		return nil
	}
}

// WithLinks returns a copy of v with its link ids rewritten by rewrite. When
// rewrite reports false, a link inside a list is dropped and a single link is
// returned unchanged. Non-link values are returned unchanged. Used by the Engine to re-project a field's link
// list through an updated clone map.
func (v Value) WithLinks(rewrite func(Link) (Link, bool)) Value {
	switch v.Kind {
	case KindLink:
		if next, ok := rewrite(v.Link); ok {
			return Value{Kind: KindLink, Link: next}
		}
		return v
	case KindList:
		items := make([]Value, 0, len(v.List))
		for _, item := range v.List {
			if item.IsLink() {
				if next, ok := rewrite(item.Link); ok {
					items = append(items, Value{Kind: KindLink, Link: next})
				}
				continue
			}
			items = append(items, item)
		}
		return Value{Kind: KindList, List: items}
	default:
		return v
	}
}

// AsString returns v's string content, if v is a string value.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// StringAt returns the string stored for locale, if any.
func (l Localized) StringAt(locale string) (string, bool) {
	v, ok := l[locale]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// FirstString returns the first non-empty string value across all locales,
// used by the translatable predicate.
func (l Localized) FirstString() (string, bool) {
	for _, v := range l {
		if v.Kind == KindString && v.Str != "" {
			return v.Str, true
		}
	}
	return "", false
}

// HasLinks reports whether any locale's value is a link or list of links.
func (l Localized) HasLinks() bool {
	for _, v := range l {
		if v.IsLink() || v.IsListOfLinks() {
			return true
		}
	}
	return false
}

// IsLinkish satisfies policy.FieldValueProbe: true when any locale holds a
// link or list-of-links shape.
func (l Localized) IsLinkish() bool {
	return l.HasLinks()
}

// HasNonEmptyString satisfies policy.FieldValueProbe.
func (l Localized) HasNonEmptyString() bool {
	_, ok := l.FirstString()
	return ok
}
