package content

import (
	"strings"

	"github.com/civicsprep/backend/internal/models"
	"github.com/tidwall/gjson"
)

// Legacy source payloads were shape-guessed by the old client: field names
// varied by content author, and some rows carried the whole array as a
// JSON-encoded string. ParseLegacySources normalizes those payloads into
// canonical Source records. It runs at import time only — stored sources
// are always canonical.

var titleAliases = []string{"title", "name", "label", "source"}
var urlAliases = []string{"url", "link", "href"}
var kindAliases = []string{"kind", "type", "source_type"}

func ParseLegacySources(raw []byte) []models.Source {
	doc := gjson.ParseBytes(raw)

	// JSON-in-string fallback: the payload itself is a quoted JSON document
	if doc.Type == gjson.String {
		doc = gjson.Parse(doc.String())
	}

	var entries []gjson.Result
	switch {
	case doc.IsArray():
		entries = doc.Array()
	case doc.IsObject():
		// Either a single source object or a wrapper like {"sources": [...]}
		if inner := doc.Get("sources"); inner.Exists() {
			if inner.Type == gjson.String {
				inner = gjson.Parse(inner.String())
			}
			entries = inner.Array()
		} else {
			entries = []gjson.Result{doc}
		}
	default:
		return nil
	}

	var sources []models.Source
	for _, e := range entries {
		if !e.IsObject() {
			// Bare string entries are treated as a title
			if e.Type == gjson.String && strings.TrimSpace(e.String()) != "" {
				sources = append(sources, models.Source{Title: strings.TrimSpace(e.String())})
			}
			continue
		}

		src := models.Source{
			Title: firstString(e, titleAliases),
			URL:   firstString(e, urlAliases),
			Kind:  firstString(e, kindAliases),
		}
		if src.Title == "" && src.URL == "" {
			continue
		}
		if src.Title == "" {
			src.Title = src.URL
		}
		sources = append(sources, src)
	}
	return sources
}

func firstString(obj gjson.Result, keys []string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
