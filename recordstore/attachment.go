package recordstore

import (
	"regexp"

	"github.com/code19m/errx"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/projectdocs/docerr"
)

// DefaultHostedPattern matches URLs served by the record store itself.
const DefaultHostedPattern = `airtableusercontent\.com|dl\.airtable\.com`

// Attachment is one element of an attachment field.
// ID is empty until the store has accepted the entry.
type Attachment struct {
	ID          string
	URL         string
	Filename    string
	ContentType string
	Size        int64
}

// AttachmentsFromField decodes an attachment field value as returned by the store.
// Nil and non-list values decode to an empty list.
func AttachmentsFromField(v any) []Attachment {
	raw := cast.ToSlice(v)
	out := make([]Attachment, 0, len(raw))
	for _, item := range raw {
		m := cast.ToStringMap(item)
		if len(m) == 0 {
			continue
		}
		out = append(out, Attachment{
			ID:          cast.ToString(m["id"]),
			URL:         cast.ToString(m["url"]),
			Filename:    cast.ToString(m["filename"]),
			ContentType: cast.ToString(m["type"]),
			Size:        cast.ToInt64(m["size"]),
		})
	}
	return out
}

// AttachmentsToField encodes attachments for a patch. Entries already known to
// the store are referenced by id, new ones by url and filename.
func AttachmentsToField(atts []Attachment) []map[string]any {
	out := make([]map[string]any, 0, len(atts))
	for _, a := range atts {
		if a.ID != "" {
			out = append(out, map[string]any{"id": a.ID})
			continue
		}
		entry := map[string]any{"url": a.URL}
		if a.Filename != "" {
			entry["filename"] = a.Filename
		}
		out = append(out, entry)
	}
	return out
}

// HostedMatcher recognizes URLs served by the record store.
type HostedMatcher struct {
	re *regexp.Regexp
}

// NewHostedMatcher compiles pattern, DefaultHostedPattern when empty.
func NewHostedMatcher(pattern string) (*HostedMatcher, error) {
	if pattern == "" {
		pattern = DefaultHostedPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithCode(docerr.CodeConfiguration), errx.WithDetails(errx.D{
			"pattern": pattern,
		}))
	}
	return &HostedMatcher{re: re}, nil
}

// IsHosted reports whether url is served by the record store.
func (m *HostedMatcher) IsHosted(url string) bool {
	return url != "" && m.re.MatchString(url)
}
