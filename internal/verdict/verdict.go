// Package verdict extracts pass/fail markers from coaching replies.
//
// A marker is a line fragment of the form "<label>: <token>", for example
// "E3: 合格". The first marker in document order decides the verdict.
package verdict

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/width"
)

// Verdict is the outcome of scanning one reply.
type Verdict string

const (
	Pass   Verdict = "pass"
	Fail   Verdict = "fail"
	Absent Verdict = "absent"
)

// Default marker tokens.
const (
	DefaultPassToken = "合格"
	DefaultFailToken = "不合格"
)

// Tokens are the literal verdict words. They are matched exactly and
// case-sensitively.
type Tokens struct {
	Pass string
	Fail string
}

// DefaultTokens returns the Japanese pass/fail tokens.
func DefaultTokens() Tokens {
	return Tokens{Pass: DefaultPassToken, Fail: DefaultFailToken}
}

// Extractor scans replies for verdict markers.
type Extractor struct {
	tokens Tokens
	logger *zap.Logger
}

// NewExtractor creates an Extractor for the given tokens. Empty tokens
// fall back to the defaults.
func NewExtractor(tokens Tokens, logger *zap.Logger) *Extractor {
	def := DefaultTokens()
	if tokens.Pass == "" {
		tokens.Pass = def.Pass
	}
	if tokens.Fail == "" {
		tokens.Fail = def.Fail
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{tokens: tokens, logger: logger}
}

// Tokens returns the tokens this extractor matches.
func (e *Extractor) Tokens() Tokens { return e.tokens }

// Marker formats the marker line a reply should end with.
func (e *Extractor) Marker(label string, v Verdict) string {
	tok := e.tokens.Fail
	if v == Pass {
		tok = e.tokens.Pass
	}
	return label + ": " + tok
}

// Extract returns the verdict for label found in reply. The label is
// compared after width folding, so "Ｅ３" matches "E3".
func (e *Extractor) Extract(label, reply string) Verdict {
	label = fold(strings.TrimSpace(label))
	if label == "" {
		return Absent
	}
	text := fold(reply)

	matches := e.pattern(label).FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Absent
	}

	first := e.classify(matches[0][1])
	for _, m := range matches[1:] {
		if v := e.classify(m[1]); v != first {
			e.logger.Warn("conflicting verdict markers in reply",
				zap.String("label", label),
				zap.String("first", string(first)),
				zap.String("conflicting", string(v)),
				zap.Int("markers", len(matches)))
			break
		}
	}
	return first
}

func (e *Extractor) classify(token string) Verdict {
	if token == fold(e.tokens.Pass) {
		return Pass
	}
	return Fail
}

// pattern matches "<label>: <token>" with optional Markdown bold or
// italic markers around the label and either token. Only an ASCII letter
// or digit directly before the label rejects a match; Japanese text runs
// into the label without a space.
func (e *Extractor) pattern(label string) *regexp.Regexp {
	toks := []string{fold(e.tokens.Pass), fold(e.tokens.Fail)}
	// Longest first so "不合格" is not read as "合格" with a prefix.
	sort.Slice(toks, func(i, j int) bool { return len(toks[i]) > len(toks[j]) })

	alts := make([]string, len(toks))
	for i, t := range toks {
		alts[i] = regexp.QuoteMeta(t)
	}
	expr := `(?:^|[^A-Za-z0-9])[*_]{0,3}` + regexp.QuoteMeta(label) + `[*_]{0,3}\s*:\s*[*_]{0,3}(` + strings.Join(alts, "|") + `)`
	return regexp.MustCompile(expr)
}

// fold maps full-width ASCII variants (Ｅ３, ：) to their narrow forms.
// Kana and kanji are left untouched.
func fold(s string) string {
	return width.Fold.String(s)
}
