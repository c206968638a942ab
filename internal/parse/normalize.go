package parse

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Club-type words that are dropped when they lead or trail a name:
// "FC Porto", "Hamburger SV", "VfB Stuttgart", "K.S.K. Heist".
var clubTokens = map[string]struct{}{
	"fc": {}, "sc": {}, "sv": {}, "tsv": {}, "vfb": {}, "fsv": {}, "vfl": {},
	"fk": {}, "cf": {}, "afc": {}, "ac": {}, "as": {}, "cd": {}, "ud": {},
	"sk": {}, "bk": {}, "nk": {}, "rc": {}, "ssc": {}, "ksk": {}, "if": {},
}

// Reserve and second-team markers, collapsed to a numeric suffix.
var reserveMarkers = map[string]string{
	"ii":  "2",
	"2nd": "2",
	"2":   "2",
	"iii": "3",
	"3rd": "3",
	"3":   "3",
}

// Letters that NFD does not decompose into base + mark.
var foldReplacer = strings.NewReplacer(
	"ß", "ss",
	"ø", "o",
	"æ", "ae",
	"œ", "oe",
	"đ", "d",
	"ł", "l",
	"ı", "i",
)

// Irregular names keyed by their computed form. The value wins over the
// computed form.
var defaultAliases = map[string]string{
	"man utd":          "manchester united",
	"man united":       "manchester united",
	"man city":         "manchester city",
	"spurs":            "tottenham hotspur",
	"tottenham":        "tottenham hotspur",
	"wolves":           "wolverhampton wanderers",
	"wolverhampton":    "wolverhampton wanderers",
	"nottm forest":     "nottingham forest",
	"sheffield utd":    "sheffield united",
	"psg":              "paris saint-germain",
	"paris sg":         "paris saint-germain",
	"paris st germain": "paris saint-germain",
	"bayern munchen":   "bayern munich",
	"internazionale":   "inter milan",
	"inter":            "inter milan",
	"atl madrid":       "atletico madrid",
	"atletico":         "atletico madrid",
	"gladbach":         "borussia monchengladbach",
	"monchengladbach":  "borussia monchengladbach",
	"dortmund":         "borussia dortmund",
	"bvb":              "borussia dortmund",
}

// Normalizer canonicalizes free-text team names so that names coming from
// different feeds compare equal.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a normalizer with the default alias table extended
// (or overridden) by extra. Keys and values of extra are free text.
func NewNormalizer(extra map[string]string) *Normalizer {
	n := &Normalizer{aliases: make(map[string]string, len(defaultAliases)+len(extra))}
	for from, to := range defaultAliases {
		n.aliases[from] = to
	}
	for from, to := range extra {
		key := n.canonical(from)
		if key == "" {
			continue
		}
		n.aliases[key] = n.canonical(to)
	}
	return n
}

var defaultNormalizer = NewNormalizer(nil)

// NormalizeTeam normalizes a team name with the default alias table.
func NormalizeTeam(name string) string {
	return defaultNormalizer.Normalize(name)
}

func (n *Normalizer) Normalize(name string) string {
	name = n.canonical(name)
	if alias, ok := n.aliases[name]; ok {
		return alias
	}
	return name
}

func (n *Normalizer) canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	name = foldDiacritics(name)
	name = stripPunctuation(name)

	tokens := strings.Fields(name)
	tokens, marker := splitReserveMarker(tokens)
	tokens = stripClubToken(tokens)
	if marker != "" {
		tokens = append(tokens, marker)
	}

	return strings.Join(tokens, " ")
}

func foldDiacritics(name string) string {
	name = foldReplacer.Replace(name)
	// transform.Chain is stateful, one per call.
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		return name
	}
	return folded
}

// stripPunctuation keeps letters, digits, spaces and hyphens.
func stripPunctuation(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			return r
		case unicode.IsSpace(r), r == '/', r == '_':
			return ' '
		default:
			return -1
		}
	}, name)
}

func splitReserveMarker(tokens []string) ([]string, string) {
	if len(tokens) < 2 {
		return tokens, ""
	}
	last := tokens[len(tokens)-1]
	if marker, ok := reserveMarkers[last]; ok {
		return tokens[:len(tokens)-1], marker
	}
	return tokens, ""
}

// stripClubToken drops one leading club token, or failing that one trailing
// token, as long as something is left of the name.
func stripClubToken(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	if _, ok := clubTokens[tokens[0]]; ok {
		return tokens[1:]
	}
	if _, ok := clubTokens[tokens[len(tokens)-1]]; ok {
		return tokens[:len(tokens)-1]
	}
	return tokens
}
