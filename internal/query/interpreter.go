// Package query turns a free-text question into a candidate entity name and
// attribute key using pattern heuristics tuned to short, single-clause German
// questions. Compound questions are out of scope for these rules.
package query

import (
	"regexp"
	"strings"
)

// keyRule binds one question pattern to its canonical attribute label.
// First matching rule wins.
type keyRule struct {
	pattern *regexp.Regexp
	key     string
}

var keyRules = []keyRule{
	// \b is ASCII-only in Go regexp, so boundaries next to ß/ü are spelled out.
	{regexp.MustCompile(`\bwie groß(?:$|[^\p{L}])|\bwelche größe\b|\bgröße hat\b`), "Größe"},
	{regexp.MustCompile(`\bwie schwer\b|\bwelches gewicht\b|\bgewicht hat\b`), "Gewicht"},
	{regexp.MustCompile(`\bwo lebt\b|\bwo kommt\b|\blebensraum\b|\bhabitat\b`), "Habitat"},
	{regexp.MustCompile(`\bwas frisst\b|\bnahrung\b|\bwovon ernährt\b`), "Nahrung"},
	{regexp.MustCompile(`\bfortpflanzung\b|\bwie pflanzt\b|\bvermehr`), "Fortpflanzung"},
	{regexp.MustCompile(`\berkennungsmerkmale\b|\bworan erkenn`), "Erkennungsmerkmale"},
	{regexp.MustCompile(`\bverhalten\b|\bwie verhält\b`), "Verhalten"},
	{regexp.MustCompile(`(?:^|[^\p{L}])überwinter`), "Überwinterung"},
	{regexp.MustCompile(`\bfeinde\b`), "Feinde"},
}

var (
	leadingClauseRe   = regexp.MustCompile(`(?i)^(wie|welche|was|wo|woran|wovon|wann)\b.*?\b(ist|hat|sind|lebt|frisst)?\b`)
	trailingPunctRe   = regexp.MustCompile(`[?!,:;]+$`)
	definiteArticleRe = regexp.MustCompile(`(?i)\b(der|die|des)\b\s+(.+)$`)
)

// ExtractKey maps question phrasing to a canonical attribute label, or ""
// when no rule matches.
func ExtractKey(text string) string {
	t := strings.ToLower(text)
	for _, rule := range keyRules {
		if rule.pattern.MatchString(t) {
			return rule.key
		}
	}
	return ""
}

// ExtractNameAndKey derives a name candidate and an attribute-key guess from
// a question. The name is what remains after stripping a leading
// interrogative clause; when stripping leaves fewer than 3 characters the
// original text (minus trailing punctuation) is used instead. A trailing
// "der/die/des X" pattern prefers X as the name, which handles phrasing like
// "Habitat der Blauschwarzen Holzbiene".
func ExtractNameAndKey(text string) (name, key string) {
	key = ExtractKey(text)

	cleaned := leadingClauseRe.ReplaceAllString(strings.TrimSpace(text), "")
	cleaned = strings.Trim(cleaned, " ?!,:;-")

	if len([]rune(cleaned)) < 3 {
		cleaned = strings.TrimSpace(trailingPunctRe.ReplaceAllString(text, ""))
	}

	if m := definiteArticleRe.FindStringSubmatch(cleaned); m != nil {
		return strings.Trim(m[2], " ?!,:;-"), key
	}
	return cleaned, key
}
