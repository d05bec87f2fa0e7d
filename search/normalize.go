package search

// Kind identifies which provider produced a raw hit, selecting the field
// aliases consulted during normalization.
type Kind string

const (
	KindGoogle     Kind = "google"
	KindDuckDuckGo Kind = "duckduckgo"
)

// Normalize maps a provider-specific hit onto the canonical Record.
// Unknown or missing fields degrade to empty strings; it never fails.
func Normalize(raw map[string]string, kind Kind) Record {
	if kind == KindGoogle {
		return Record{
			Title:   pick(raw, "title"),
			URL:     pick(raw, "link", "url"),
			Snippet: pick(raw, "snippet"),
		}
	}
	return Record{
		Title:   pick(raw, "title"),
		URL:     pick(raw, "href", "url"),
		Snippet: pick(raw, "body", "snippet"),
		Date:    pick(raw, "date"),
		Source:  pick(raw, "source"),
	}
}

func pick(raw map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := raw[k]; v != "" {
			return v
		}
	}
	return ""
}
