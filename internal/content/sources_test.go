package content

import "testing"

func TestParseLegacySourcesCanonical(t *testing.T) {
	raw := []byte(`[{"title":"Federalist No. 10","url":"https://example.org/fed10","kind":"primary"}]`)
	sources := ParseLegacySources(raw)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if sources[0].Title != "Federalist No. 10" {
		t.Errorf("title = %q", sources[0].Title)
	}
	if sources[0].URL != "https://example.org/fed10" {
		t.Errorf("url = %q", sources[0].URL)
	}
	if sources[0].Kind != "primary" {
		t.Errorf("kind = %q", sources[0].Kind)
	}
}

func TestParseLegacySourcesAliasedFields(t *testing.T) {
	raw := []byte(`[{"name":"National Archives","link":"https://archives.gov","type":"reference"}]`)
	sources := ParseLegacySources(raw)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if sources[0].Title != "National Archives" {
		t.Errorf("title = %q, want alias 'name' honored", sources[0].Title)
	}
	if sources[0].URL != "https://archives.gov" {
		t.Errorf("url = %q, want alias 'link' honored", sources[0].URL)
	}
	if sources[0].Kind != "reference" {
		t.Errorf("kind = %q, want alias 'type' honored", sources[0].Kind)
	}
}

func TestParseLegacySourcesJSONInString(t *testing.T) {
	// The whole array arrives as a JSON-encoded string
	raw := []byte(`"[{\"title\":\"Bill of Rights\"}]"`)
	sources := ParseLegacySources(raw)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if sources[0].Title != "Bill of Rights" {
		t.Errorf("title = %q", sources[0].Title)
	}
}

func TestParseLegacySourcesWrapperObject(t *testing.T) {
	raw := []byte(`{"sources":[{"label":"Library of Congress","href":"https://loc.gov"}]}`)
	sources := ParseLegacySources(raw)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if sources[0].Title != "Library of Congress" {
		t.Errorf("title = %q", sources[0].Title)
	}
}

func TestParseLegacySourcesSingleObject(t *testing.T) {
	raw := []byte(`{"title":"Constitution Annotated","url":"https://constitution.congress.gov"}`)
	sources := ParseLegacySources(raw)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
}

func TestParseLegacySourcesBareStrings(t *testing.T) {
	raw := []byte(`["USCIS Civics Study Guide", "  ", "Declaration of Independence"]`)
	sources := ParseLegacySources(raw)
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].Title != "USCIS Civics Study Guide" {
		t.Errorf("title = %q", sources[0].Title)
	}
}

func TestParseLegacySourcesDropsEmpty(t *testing.T) {
	raw := []byte(`[{"kind":"primary"},{"url":"https://example.org"}]`)
	sources := ParseLegacySources(raw)
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1 (title-less+url-less entry dropped)", len(sources))
	}
	// URL-only entries fall back to URL as title
	if sources[0].Title != "https://example.org" {
		t.Errorf("title = %q, want URL fallback", sources[0].Title)
	}
}

func TestParseLegacySourcesGarbage(t *testing.T) {
	if got := ParseLegacySources([]byte(`42`)); got != nil {
		t.Errorf("numeric payload: got %v, want nil", got)
	}
	if got := ParseLegacySources([]byte(`not json at all`)); len(got) != 0 {
		t.Errorf("invalid payload: got %v, want none", got)
	}
}
