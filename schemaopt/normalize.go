package schemaopt

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/rise-and-shine/projectdocs/recordstore"
)

//nolint:gochecknoglobals // static lookups
var (
	dashes       = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-", "‐", "-", "‑", "-")
	spacedDashRe = regexp.MustCompile(`\s*-\s*`)
)

// NormalizeSeason folds case, dash variants and whitespace so that
// "24-25", "24 - 25" and "24 –25" compare equal.
func NormalizeSeason(name string) string {
	s := strings.ToLower(dashes.Replace(name))
	s = strings.Join(strings.Fields(s), " ")
	return spacedDashRe.ReplaceAllString(s, "-")
}

// findChoice returns the choice of f whose normalized name equals name.
func findChoice(f recordstore.Field, name string) (recordstore.Choice, bool) {
	want := NormalizeSeason(name)
	return lo.Find(f.Choices(), func(c recordstore.Choice) bool {
		return NormalizeSeason(c.Name) == want
	})
}

// usageFormula matches live records whose season field holds name,
// excluding placeholder records.
func usageFormula(f recordstore.Field, name string, cfg Config) string {
	quoted := quote(name)

	var match string
	if f.Type == recordstore.FieldTypeMultipleSelect {
		match = "FIND(','&" + quoted + "&',', ','&ARRAYJOIN({" + f.Name + "},',')&',')"
	} else {
		match = "{" + f.Name + "}=" + quoted
	}
	return "AND(" + match + ", NOT({" + cfg.SentinelField + "}=" + quote(cfg.SentinelValue) + "))"
}

func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}
