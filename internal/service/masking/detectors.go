package masking

import (
	"regexp"
	"strings"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

var (
	ssnPattern      = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	digitRunPattern = regexp.MustCompile(`\b\d{8,17}\b`)

	bankingKeywordPattern = regexp.MustCompile(`(?i)\b(?:account|acct|acc|checking|savings|member|card|loan)\b|#`)
	routingKeywordPattern = regexp.MustCompile(`(?i)\b(?:routing|aba|transit)\b`)

	amountPattern = regexp.MustCompile(`(?i)[$€£]\s?\d[\d,]*(?:\.\d{1,2})?(?:\s?(?:k|thousand|million))?\b|\b\d[\d,]*(?:\.\d{1,2})?\s?(?:dollars?|cents?|usd|bucks|euros?)\b`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
		regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`),
		regexp.MustCompile(`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`),
		regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:January|February|March|April|May|June|July|August|September|October|November|December)(?:,?\s+\d{4})?\b`),
	}

	titleNamePattern  = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Mx|Dr|Prof)\.?\s+([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){0,2})`)
	introNamePattern  = regexp.MustCompile(`(?:\b[Mm]y name is|\b[Tt]his is|\b[Cc]all me|\b[Nn]ame's)\s+([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){0,2})`)
	capitalRunPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,3}\b`)
)

// nameDenylist holds capitalized words that are not names: greetings, weekdays, months,
// banking terms and sentence starters.
var nameDenylist = map[string]struct{}{}

func init() {
	words := []string{
		"hello", "hi", "hey", "good", "morning", "afternoon", "evening", "night", "thanks", "thank", "please",
		"yes", "no", "okay", "ok", "sure", "sorry", "welcome", "goodbye", "bye",
		"the", "a", "an", "and", "or", "but", "my", "your", "our", "his", "her", "their", "this", "that",
		"what", "when", "where", "why", "how", "who", "which", "can", "could", "would", "will", "should",
		"is", "are", "was", "do", "does", "did", "have", "has", "i", "we", "you", "they", "it",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"january", "february", "march", "april", "may", "june", "july", "august", "september",
		"october", "november", "december",
		"credit", "union", "bank", "account", "checking", "savings", "loan", "mortgage", "card",
		"debit", "visa", "mastercard", "routing", "number", "balance", "branch", "teller", "member",
		"social", "security", "street", "avenue", "road", "main", "mister", "miss",
		"english", "spanish", "french", "portuguese", "chinese", "vietnamese", "arabic", "somali",
	}
	for _, w := range words {
		nameDenylist[w] = struct{}{}
	}
}

func isDenylisted(token string) bool {
	_, ok := nameDenylist[strings.ToLower(token)]
	return ok
}

// DetectStructured finds SSNs, routing and account numbers, amounts and dates.
func DetectStructured(text string) []domain.Entity {
	var entities []domain.Entity

	for _, loc := range ssnPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, newEntity(domain.EntitySSN, text, loc))
	}

	for _, loc := range digitRunPattern.FindAllStringIndex(text, -1) {
		digits := loc[1] - loc[0]
		window := keywordWindow(text, loc[0], loc[1])
		switch {
		case digits == 9 && routingKeywordPattern.MatchString(window):
			entities = append(entities, newEntity(domain.EntityRoutingNumber, text, loc))
		case bankingKeywordPattern.MatchString(window):
			entities = append(entities, newEntity(domain.EntityAccountNumber, text, loc))
		}
	}

	for _, loc := range amountPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, newEntity(domain.EntityAmount, text, loc))
	}

	for _, pattern := range datePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			entities = append(entities, newEntity(domain.EntityDate, text, loc))
		}
	}

	return entities
}

// DetectNames is the heuristic PERSON detector used when no recognizer is available.
func DetectNames(text string) []domain.Entity {
	var entities []domain.Entity

	for _, pattern := range []*regexp.Regexp{titleNamePattern, introNamePattern} {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if e, ok := trimName(text, m[2], m[3], 1); ok {
				entities = append(entities, e)
			}
		}
	}

	for _, loc := range capitalRunPattern.FindAllStringIndex(text, -1) {
		if e, ok := trimName(text, loc[0], loc[1], 2); ok {
			entities = append(entities, e)
		}
	}

	return entities
}

// trimName drops denylisted tokens from both ends of a capitalized run and rejects the
// candidate if fewer than minTokens remain or a denylisted token sits inside it.
func trimName(text string, start, end, minTokens int) (domain.Entity, bool) {
	type token struct{ start, end int }

	var tokens []token
	inWord := false
	for i := start; i < end; i++ {
		isSpace := text[i] == ' ' || text[i] == '\t'
		switch {
		case !isSpace && !inWord:
			tokens = append(tokens, token{start: i})
			inWord = true
		case isSpace && inWord:
			tokens[len(tokens)-1].end = i
			inWord = false
		}
	}
	if inWord {
		tokens[len(tokens)-1].end = end
	}

	for len(tokens) > 0 && isDenylisted(text[tokens[0].start:tokens[0].end]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && isDenylisted(text[tokens[len(tokens)-1].start:tokens[len(tokens)-1].end]) {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) < minTokens {
		return domain.Entity{}, false
	}
	for _, t := range tokens {
		if isDenylisted(text[t.start:t.end]) {
			return domain.Entity{}, false
		}
	}

	s, e := tokens[0].start, tokens[len(tokens)-1].end
	return domain.Entity{Type: domain.EntityPerson, Text: text[s:e], Start: s, End: e}, true
}

func keywordWindow(text string, start, end int) string {
	window := constants.MaskingConfig.KeywordWindow
	from := max(0, start-window)
	to := min(len(text), end+window)
	return text[from:start] + " " + text[end:to]
}

func newEntity(t domain.EntityType, text string, loc []int) domain.Entity {
	return domain.Entity{Type: t, Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]}
}
