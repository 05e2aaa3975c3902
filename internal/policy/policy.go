// Package policy implements the reference classifier and field policy:
// pure, stateless rules answering whether a field is translatable,
// copy-as-is, empty-on-clone, markdown, an author link, or a culture field.
//
// Policy is the single immutable value threaded into the Engine and Tracker;
// any override lives on the request that builds a Policy, never on package
// state.
package policy

import (
	"strings"

	"golang.org/x/text/language"
)

// FieldKind is resolved once per (contentTypeID, fieldID) and dispatched on
// by the Engine, replacing ad-hoc "is this a markdown field?" string checks
// scattered through call sites.
type FieldKind int

const (
	FieldOther FieldKind = iota
	FieldEmptyOnClone
	FieldCopyAsIs
	FieldAuthor
	FieldCulture
	FieldMarkdown
	FieldTranslatable
	FieldLink
)

// Policy holds every configurable classification table. Zero value is not
// useful; use Default() or New(opts...).
type Policy struct {
	// PrefixFields are scalar string fields that receive ClonePrefix on clone.
	PrefixFields []string
	ClonePrefix  string

	// EmptyOnCloneFields are reset to a typed empty value on clone.
	EmptyOnCloneFields []string

	// CopyAsIsFields are never translated; only their links (if any) are rewritten.
	CopyAsIsFields []string

	// AuthorFields hold links to entries of AuthorContentType that should be
	// re-linked to an existing target-culture author rather than cloned.
	AuthorFields      []string
	AuthorContentType string

	// CultureFieldSubstr marks any field whose id contains this substring
	// (case-insensitive) as the entry's culture/locale field.
	CultureFieldSubstr string

	// MarkdownFields maps "contentTypeID.fieldID" to true for fields whose
	// string (or bullet-list array) values go through markdown translation.
	MarkdownFields map[string]bool

	// TranslatableDenylist excludes fields from the translatable predicate
	// even when they would otherwise qualify (system/slug/tracking/etc).
	TranslatableDenylist []string

	// TrackableDenylist excludes reference fields from tracker traversal
	// even though they hold links (parentPage, authors, culture, ...).
	TrackableDenylist []string

	// CultureMap maps a translator provider language code (DE, IT, EN-GB, ...)
	// to this deployment's stored locale tag (de-DE, it-IT, en-GB, ...).
	CultureMap map[string]string

	// localeToProvider is the inverse of CultureMap, built by New/Default.
	localeToProvider map[string]string

	prefixSet            map[string]bool
	emptyOnCloneSet      map[string]bool
	copyAsIsSet          map[string]bool
	authorFieldSet       map[string]bool
	translatableDenylist map[string]bool
	trackableDenylistSet map[string]bool
}

// Option customises a Policy built by New.
type Option func(*Policy)

// Default returns the policy with every classification table at its
// default.
func Default() Policy {
	return New()
}

// New builds a Policy from the default classification tables, applying any
// overrides.
func New(opts ...Option) Policy {
	p := Policy{
		PrefixFields:       []string{"title"},
		ClonePrefix:        "[Clone] ",
		EmptyOnCloneFields: []string{"slug", "parentPage", "productionUrl", "authors"},
		CopyAsIsFields: []string{
			"domain", "pageType", "productionUrl", "makeModel", "publicationDate",
			"lastModificationDate", "makeIds", "modelIds", "trackingName",
		},
		AuthorFields:       []string{"authors"},
		AuthorContentType:  "author",
		CultureFieldSubstr: "culture",
		MarkdownFields: map[string]bool{
			"cmsPage.teaserText":     true,
			"scText.content":         true,
			"scSuperhero.text":       true,
			"scSuperhero.bulletList": true,
		},
		TranslatableDenylist: []string{
			"slug", "internalName", "culture", "domain", "pageType",
			"publicationDate", "lastModificationDate", "trackingName",
			"makeIds", "modelIds", "featureFlags",
		},
		TrackableDenylist: []string{
			"parentPage", "authors", "makeModel", "makeIds", "modelIds",
			"trackingName", "internalName", "fieldStatus", "automationTags",
			"culture", "domain", "pageType",
		},
		CultureMap: map[string]string{
			"DE":    "de-DE",
			"IT":    "it-IT",
			"EN":    "en-GB",
			"EN-GB": "en-GB",
			"FR":    "fr-FR",
			"FR-CA": "fr-CA",
			"NL":    "nl-NL",
			"NL-BE": "nl-BE",
			"ES":    "es-ES",
			"PT":    "pt-PT",
			"PT-PT": "pt-PT",
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	p.index()
	return p
}

// WithClonePrefix overrides the fixed prefix prepended to PrefixFields.
func WithClonePrefix(prefix string) Option {
	return func(p *Policy) { p.ClonePrefix = prefix }
}

// WithPrefixFields overrides which fields receive the clone prefix.
func WithPrefixFields(fields ...string) Option {
	return func(p *Policy) { p.PrefixFields = fields }
}

// WithCultureMap overrides the provider-language-code to stored-locale map.
func WithCultureMap(m map[string]string) Option {
	return func(p *Policy) { p.CultureMap = m }
}

// WithMarkdownFields overrides the per-content-type markdown field allowlist.
func WithMarkdownFields(m map[string]bool) Option {
	return func(p *Policy) { p.MarkdownFields = m }
}

func (p *Policy) index() {
	p.prefixSet = toSet(p.PrefixFields)
	p.emptyOnCloneSet = toSet(p.EmptyOnCloneFields)
	p.copyAsIsSet = toSet(p.CopyAsIsFields)
	p.authorFieldSet = toSet(p.AuthorFields)
	p.translatableDenylist = toSet(p.TranslatableDenylist)
	p.trackableDenylistSet = toSet(p.TrackableDenylist)

	p.localeToProvider = make(map[string]string, len(p.CultureMap))
	for provider, locale := range p.CultureMap {
		p.localeToProvider[canonicalLocale(locale)] = provider
	}
}

// canonicalLocale renders a stored locale tag in BCP 47 canonical casing
// (de-de, DE-de and de-DE all become de-DE) so culture-field values written
// by hand in the CMS still resolve against the culture map.
func canonicalLocale(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsCultureField reports whether fieldID names the entry's culture field.
func (p Policy) IsCultureField(fieldID string) bool {
	return strings.Contains(strings.ToLower(fieldID), strings.ToLower(p.CultureFieldSubstr))
}

// IsMarkdownField reports whether fieldID on contentTypeID is markdown.
func (p Policy) IsMarkdownField(contentTypeID, fieldID string) bool {
	return p.MarkdownFields[contentTypeID+"."+fieldID]
}

// IsPrefixField reports whether fieldID receives the clone prefix.
func (p Policy) IsPrefixField(fieldID string) bool { return p.prefixSet[fieldID] }

// IsEmptyOnClone reports whether fieldID is reset to empty on clone.
func (p Policy) IsEmptyOnClone(fieldID string) bool { return p.emptyOnCloneSet[fieldID] }

// IsCopyAsIs reports whether fieldID is copy-as-is (links rewritten, scalars untouched).
func (p Policy) IsCopyAsIs(fieldID string) bool { return p.copyAsIsSet[fieldID] }

// IsAuthorField reports whether fieldID is an author-link field.
func (p Policy) IsAuthorField(fieldID string) bool { return p.authorFieldSet[fieldID] }

// IsTrackable reports whether fieldID should be followed by the reference tracker.
func (p Policy) IsTrackable(fieldID string) bool { return !p.trackableDenylistSet[fieldID] }

// LocaleForProvider maps a translator provider language code to the stored locale tag.
func (p Policy) LocaleForProvider(providerCode string) (string, bool) {
	locale, ok := p.CultureMap[strings.ToUpper(providerCode)]
	return locale, ok
}

// ProviderForLocale maps a stored locale tag back to a provider language code,
// used to auto-detect the source language from a source entry's culture field.
func (p Policy) ProviderForLocale(locale string) (string, bool) {
	code, ok := p.localeToProvider[canonicalLocale(locale)]
	return code, ok
}

// IsTranslatableField implements the translatable predicate:
// not a link/list-of-links, resolves to a non-empty string in some locale,
// and is not on the denylist.
func (p Policy) IsTranslatableField(fieldID string, value FieldValueProbe) bool {
	if p.translatableDenylist[fieldID] {
		return false
	}
	if value.IsLinkish() {
		return false
	}
	return value.HasNonEmptyString()
}

// FieldValueProbe is the minimal surface Classify needs from a field value,
// satisfied by fieldvalue.Localized without importing it here (keeps policy
// a leaf package with zero dependencies on the domain model it classifies).
type FieldValueProbe interface {
	IsLinkish() bool
	HasNonEmptyString() bool
}

// Classify resolves the FieldKind for (contentTypeID, fieldID) given its
// value: author re-link first (when the field actually holds links), then
// empty-set, copy-as-is, culture, markdown, translatable, and finally plain
// link.
func (p Policy) Classify(contentTypeID, fieldID string, value FieldValueProbe) FieldKind {
	switch {
	case p.IsAuthorField(fieldID) && value.IsLinkish():
		// Author links are matched against an existing target-culture author
		// before the empty-on-clone reset gets a say; an author field that
		// carries no links falls through to the remaining rules.
		return FieldAuthor
	case p.IsEmptyOnClone(fieldID):
		return FieldEmptyOnClone
	case p.IsCopyAsIs(fieldID):
		return FieldCopyAsIs
	case p.IsCultureField(fieldID):
		return FieldCulture
	case p.IsMarkdownField(contentTypeID, fieldID):
		return FieldMarkdown
	case p.IsTranslatableField(fieldID, value):
		return FieldTranslatable
	case value.IsLinkish():
		return FieldLink
	default:
		return FieldOther
	}
}
