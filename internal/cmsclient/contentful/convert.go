package contentful

import (
	"time"

	cf "github.com/foomo/contentful"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

func fromContentfulEntry(e *cf.Entry) *cmsclient.Entry {
	out := &cmsclient.Entry{
		Fields: make(map[string]fieldvalue.Localized),
	}
	if e.Sys != nil {
		out.ID = e.Sys.ID
		out.Version = e.Sys.Version
		if e.Sys.ContentType != nil && e.Sys.ContentType.Sys != nil {
			out.ContentTypeID = e.Sys.ContentType.Sys.ID
		}
		if updated, err := time.Parse(time.RFC3339, e.Sys.UpdatedAt); err == nil {
			out.UpdatedAt = updated
		}
	}
	for fieldID, byLocale := range e.Fields {
		localeMap, ok := byLocale.(map[string]any)
		if !ok {
			continue
		}
		localized := make(fieldvalue.Localized, len(localeMap))
		for locale, raw := range localeMap {
			localized[locale] = fromRaw(raw)
		}
		out.Fields[fieldID] = localized
	}
	return out
}

func fromRaw(raw any) fieldvalue.Value {
	switch v := raw.(type) {
	case nil:
		return fieldvalue.Null()
	case string:
		return fieldvalue.String(v)
	case float64:
		return fieldvalue.Number(v)
	case bool:
		return fieldvalue.Bool(v)
	case map[string]any:
		if link, ok := asLink(v); ok {
			return link
		}
		obj := make(map[string]fieldvalue.Value, len(v))
		for k, item := range v {
			obj[k] = fromRaw(item)
		}
		return fieldvalue.Object(obj)
	case []any:
		items := make([]fieldvalue.Value, len(v))
		for i, item := range v {
			items[i] = fromRaw(item)
		}
		return fieldvalue.List(items...)
	default:
		return fieldvalue.Null()
	}
}

func asLink(m map[string]any) (fieldvalue.Value, bool) {
	sys, ok := m["sys"].(map[string]any)
	if !ok {
		return fieldvalue.Value{}, false
	}
	if linkType, _ := sys["type"].(string); linkType != "Link" {
		return fieldvalue.Value{}, false
	}
	id, _ := sys["id"].(string)
	switch linkTarget, _ := sys["linkType"].(string); linkTarget {
	case "Asset":
		return fieldvalue.AssetLink(id), true
	default:
		return fieldvalue.EntryLink(id), true
	}
}

func toContentfulFields(fields map[string]fieldvalue.Localized) map[string]any {
	out := make(map[string]any, len(fields))
	for fieldID, localized := range fields {
		byLocale := make(map[string]any, len(localized))
		for locale, v := range localized {
			byLocale[locale] = toRaw(v)
		}
		out[fieldID] = byLocale
	}
	return out
}

func toRaw(v fieldvalue.Value) any {
	switch v.Kind {
	case fieldvalue.KindNull:
		return nil
	case fieldvalue.KindString:
		return v.Str
	case fieldvalue.KindNumber:
		return v.Num
	case fieldvalue.KindBool:
		return v.Bool
	case fieldvalue.KindDate:
		return v.Date.UTC().Format(time.RFC3339)
	case fieldvalue.KindList:
		items := make([]any, len(v.List))
		for i, item := range v.List {
			items[i] = toRaw(item)
		}
		return items
	case fieldvalue.KindObject:
		obj := make(map[string]any, len(v.Object))
		for k, item := range v.Object {
			obj[k] = toRaw(item)
		}
		return obj
	case fieldvalue.KindLink:
		return map[string]any{
			"sys": map[string]any{
				"type":     "Link",
				"linkType": string(v.Link.LinkType),
				"id":       v.Link.ID,
			},
		}
	default:
		return nil
	}
}

func fromContentfulContentType(ct *cf.ContentType) *cmsclient.ContentTypeSchema {
	schema := &cmsclient.ContentTypeSchema{}
	if ct.Sys != nil {
		schema.ID = ct.Sys.ID
	}
	schema.Fields = make([]cmsclient.FieldSchema, 0, len(ct.Fields))
	for _, f := range ct.Fields {
		schema.Fields = append(schema.Fields, cmsclient.FieldSchema{
			ID:          f.ID,
			Type:        cmsclient.FieldType(f.Type),
			Required:    f.Required,
			Validations: fromContentfulValidations(f.Validations),
		})
	}
	return schema
}

func fromContentfulValidations(in []cf.FieldValidation) []cmsclient.FieldValidation {
	out := make([]cmsclient.FieldValidation, 0, len(in))
	for _, v := range in {
		if len(v.In) == 0 {
			continue
		}
		out = append(out, cmsclient.FieldValidation{In: v.In})
	}
	return out
}
