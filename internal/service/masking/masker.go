package masking

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

// PlaceholderPattern matches any issued placeholder such as __ACCOUNT_NUMBER_3__.
var PlaceholderPattern = regexp.MustCompile(`__[A-Z_]+_\d+__`)

// Masker detects sensitive spans and swaps them for placeholders before text leaves the process.
type Masker struct {
	recognizer NamedEntityProvider
	nerTimeout time.Duration
	logger     *zap.Logger
}

// NewMasker accepts a nil recognizer; the heuristic name detector is used then.
func NewMasker(recognizer NamedEntityProvider, nerTimeout time.Duration, logger *zap.Logger) *Masker {
	if nerTimeout <= 0 {
		nerTimeout = constants.MaskingConfig.NERTimeout
	}
	return &Masker{
		recognizer: recognizer,
		nerTimeout: nerTimeout,
		logger:     logger,
	}
}

// Detect returns non-overlapping entities ordered by position.
func (m *Masker) Detect(ctx context.Context, text string) []domain.Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	entities := DetectStructured(text)
	entities = append(entities, m.detectPeople(ctx, text)...)

	return Resolve(entities)
}

func (m *Masker) detectPeople(ctx context.Context, text string) []domain.Entity {
	if m.recognizer == nil {
		return DetectNames(text)
	}

	ctx, cancel := context.WithTimeout(ctx, m.nerTimeout)
	defer cancel()

	found, err := m.recognizer.Detect(ctx, text)
	if err != nil {
		m.logger.Warn("Entity recognizer unavailable, using heuristic name detection", zap.Error(err))
		return DetectNames(text)
	}
	return found
}

// Resolve collapses duplicates (same type, text and start) and keeps the stronger entity
// where spans overlap: higher type priority first, then the longer span.
func Resolve(entities []domain.Entity) []domain.Entity {
	type key struct {
		t     domain.EntityType
		text  string
		start int
	}
	seen := make(map[key]struct{}, len(entities))
	unique := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		k := key{e.Type, e.Text, e.Start}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, e)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		pi, pj := unique[i].Type.Priority(), unique[j].Type.Priority()
		if pi != pj {
			return pi > pj
		}
		if unique[i].Len() != unique[j].Len() {
			return unique[i].Len() > unique[j].Len()
		}
		return unique[i].Start < unique[j].Start
	})

	kept := make([]domain.Entity, 0, len(unique))
	for _, candidate := range unique {
		overlaps := false
		for _, k := range kept {
			if candidate.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

type literal struct {
	entityType domain.EntityType
	text       string
}

// Mask replaces every occurrence of each entity's text with a placeholder. Longer literals
// go first so a literal contained in another is never substituted inside it. PERSON
// matching ignores case, with one placeholder per distinct casing found.
func (m *Masker) Mask(text string, entities []domain.Entity) (string, *domain.MaskingMap) {
	maskingMap := domain.NewMaskingMap()
	if len(entities) == 0 {
		return text, maskingMap
	}

	literals := distinctLiterals(entities)
	issuer := &placeholderIssuer{source: strings.ToLower(text)}
	masked := text

	for _, lit := range literals {
		pattern, err := literalPattern(lit)
		if err != nil {
			m.logger.Warn("Skipping unmaskable entity", zap.String("type", lit.entityType.String()), zap.Error(err))
			continue
		}

		byCasing := make(map[string]string)
		masked = replaceOutsidePlaceholders(masked, pattern, func(match string) string {
			if placeholder, ok := byCasing[match]; ok {
				return placeholder
			}
			placeholder := issuer.next(lit.entityType)
			maskingMap.Add(placeholder, match, lit.entityType)
			byCasing[match] = placeholder
			return placeholder
		})
	}

	return masked, maskingMap
}

// Unmask restores originals in reverse lexical order of the placeholder strings.
func (m *Masker) Unmask(text string, maskingMap *domain.MaskingMap) string {
	if maskingMap.Len() == 0 {
		return text
	}

	placeholders := append([]string(nil), maskingMap.Placeholders...)
	sort.Sort(sort.Reverse(sort.StringSlice(placeholders)))

	for _, placeholder := range placeholders {
		original, _ := maskingMap.Lookup(placeholder)
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(placeholder))
		text = re.ReplaceAllLiteralString(text, original)
	}
	return text
}

// Validate reports whether text is free of residual placeholders.
func (m *Masker) Validate(text string) bool {
	return !PlaceholderPattern.MatchString(text)
}

// Residuals lists placeholders still present in text.
func Residuals(text string) []string {
	return PlaceholderPattern.FindAllString(text, -1)
}

func distinctLiterals(entities []domain.Entity) []literal {
	seen := make(map[string]struct{})
	var out []literal
	for _, e := range entities {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		key := e.Type.String() + "\x00" + e.Text
		if e.Type == domain.EntityPerson {
			key = e.Type.String() + "\x00" + strings.ToLower(e.Text)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, literal{entityType: e.Type, text: e.Text})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		return out[i].entityType.Priority() > out[j].entityType.Priority()
	})
	return out
}

func literalPattern(lit literal) (*regexp.Regexp, error) {
	expr := regexp.QuoteMeta(lit.text)
	if isWordByte(lit.text[0]) {
		expr = `\b` + expr
	}
	if isWordByte(lit.text[len(lit.text)-1]) {
		expr += `\b`
	}
	if lit.entityType == domain.EntityPerson {
		expr = `(?i)` + expr
	}
	return regexp.Compile(expr)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// replaceOutsidePlaceholders applies pattern only to the spans between existing placeholders.
func replaceOutsidePlaceholders(text string, pattern *regexp.Regexp, replace func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range PlaceholderPattern.FindAllStringIndex(text, -1) {
		b.WriteString(pattern.ReplaceAllStringFunc(text[last:loc[0]], replace))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(pattern.ReplaceAllStringFunc(text[last:], replace))
	return b.String()
}

// placeholderIssuer hands out __TYPE_n__ with n strictly increasing across types, skipping
// any candidate already present in the input.
type placeholderIssuer struct {
	source string
	index  int
}

func (p *placeholderIssuer) next(t domain.EntityType) string {
	for {
		placeholder := fmt.Sprintf("__%s_%d__", t.String(), p.index)
		p.index++
		if !strings.Contains(p.source, strings.ToLower(placeholder)) {
			return placeholder
		}
	}
}
