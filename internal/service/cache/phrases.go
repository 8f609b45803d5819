package cache

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/util"
)

// greetingConcept groups the ways a greeting is said per language with the canned
// rendering used when translating into that language.
type greetingConcept struct {
	name      string
	patterns  map[string][]string
	canonical map[string]string
}

var greetingConcepts = []greetingConcept{
	{
		name: "hello",
		patterns: map[string][]string{
			"en": {"hello", "hi", "hey"},
			"es": {"hola", "buenas"},
			"fr": {"bonjour", "salut"},
			"pt": {"olá", "oi"},
			"vi": {"xin chào", "chào"},
			"zh": {"你好", "您好"},
			"ru": {"здравствуйте", "привет"},
			"ar": {"مرحبا", "السلام عليكم"},
		},
		canonical: map[string]string{
			"en": "Hello", "es": "Hola", "fr": "Bonjour", "pt": "Olá",
			"vi": "Xin chào", "zh": "您好", "ru": "Здравствуйте", "ar": "مرحبا",
		},
	},
	{
		name: "good morning",
		patterns: map[string][]string{
			"en": {"good morning"},
			"es": {"buenos días", "buenos dias"},
			"pt": {"bom dia"},
			"vi": {"chào buổi sáng"},
			"zh": {"早上好"},
			"ru": {"доброе утро"},
			"ar": {"صباح الخير"},
		},
		canonical: map[string]string{
			"en": "Good morning", "es": "Buenos días", "fr": "Bonjour", "pt": "Bom dia",
			"vi": "Chào buổi sáng", "zh": "早上好", "ru": "Доброе утро", "ar": "صباح الخير",
		},
	},
	{
		name: "good afternoon",
		patterns: map[string][]string{
			"en": {"good afternoon"},
			"es": {"buenas tardes"},
			"pt": {"boa tarde"},
			"vi": {"chào buổi chiều"},
			"zh": {"下午好"},
			"ru": {"добрый день"},
		},
		canonical: map[string]string{
			"en": "Good afternoon", "es": "Buenas tardes", "fr": "Bonjour", "pt": "Boa tarde",
			"vi": "Chào buổi chiều", "zh": "下午好", "ru": "Добрый день", "ar": "مساء الخير",
		},
	},
	{
		name: "good evening",
		patterns: map[string][]string{
			"en": {"good evening"},
			"es": {"buenas noches"},
			"fr": {"bonsoir"},
			"pt": {"boa noite"},
			"vi": {"chào buổi tối"},
			"zh": {"晚上好"},
			"ru": {"добрый вечер"},
			"ar": {"مساء الخير"},
		},
		canonical: map[string]string{
			"en": "Good evening", "es": "Buenas noches", "fr": "Bonsoir", "pt": "Boa noite",
			"vi": "Chào buổi tối", "zh": "晚上好", "ru": "Добрый вечер", "ar": "مساء الخير",
		},
	},
	{
		name: "thank you",
		patterns: map[string][]string{
			"en": {"thank you", "thanks"},
			"es": {"gracias", "muchas gracias"},
			"fr": {"merci", "merci beaucoup"},
			"pt": {"obrigado", "obrigada"},
			"vi": {"cảm ơn"},
			"zh": {"谢谢"},
			"ru": {"спасибо"},
			"ar": {"شكرا"},
		},
		canonical: map[string]string{
			"en": "Thank you", "es": "Gracias", "fr": "Merci", "pt": "Obrigado",
			"vi": "Cảm ơn", "zh": "谢谢", "ru": "Спасибо", "ar": "شكرا",
		},
	},
	{
		name: "goodbye",
		patterns: map[string][]string{
			"en": {"goodbye", "bye", "see you later"},
			"es": {"adiós", "adios", "hasta luego"},
			"fr": {"au revoir"},
			"pt": {"tchau", "adeus"},
			"vi": {"tạm biệt"},
			"zh": {"再见"},
			"ru": {"до свидания"},
			"ar": {"مع السلامة"},
		},
		canonical: map[string]string{
			"en": "Goodbye", "es": "Adiós", "fr": "Au revoir", "pt": "Tchau",
			"vi": "Tạm biệt", "zh": "再见", "ru": "До свидания", "ar": "مع السلامة",
		},
	},
	{
		name: "how are you",
		patterns: map[string][]string{
			"en": {"how are you"},
			"es": {"cómo está", "como esta", "cómo estás", "como estas"},
			"fr": {"comment allez-vous", "ça va"},
			"pt": {"como vai", "tudo bem"},
			"vi": {"bạn khỏe không"},
			"zh": {"你好吗"},
			"ru": {"как дела"},
			"ar": {"كيف حالك"},
		},
		canonical: map[string]string{
			"en": "How are you?", "es": "¿Cómo está?", "fr": "Comment allez-vous ?", "pt": "Como vai?",
			"vi": "Bạn khỏe không?", "zh": "你好吗？", "ru": "Как дела?", "ar": "كيف حالك؟",
		},
	},
}

var commonPhrases = []string{
	"thank you", "thanks", "please", "yes", "no", "okay",
	"how can i help", "can i help you", "one moment", "have a nice day",
	"i need help", "account balance", "open an account", "make a deposit",
	"withdraw", "transfer money", "check my balance", "sign here", "your id",
	"gracias", "por favor", "sí", "necesito ayuda",
}

// fillerWords may accompany a greeting without changing what needs to be said back.
var fillerWords = map[string]struct{}{
	"there": {}, "everyone": {}, "all": {}, "again": {}, "so": {}, "much": {}, "very": {},
	"um": {}, "uh": {}, "oh": {}, "well": {}, "and": {}, "sir": {}, "madam": {}, "ma'am": {},
	"maam": {}, "friend": {}, "folks": {}, "today": {}, "to": {}, "you": {},
	"señor": {}, "señora": {}, "senor": {}, "senora": {}, "muy": {}, "pues": {}, "y": {},
	"monsieur": {}, "madame": {}, "senhor": {}, "senhora": {}, "muito": {},
}

type greetingPattern struct {
	phrase  string
	concept *greetingConcept
}

// Phrases classifies utterances as greetings or common phrases and answers greetings
// with canned translations.
type Phrases struct {
	byLanguage map[string][]greetingPattern
	common     []string
}

func DefaultPhrases() *Phrases {
	p := &Phrases{byLanguage: make(map[string][]greetingPattern)}
	for i := range greetingConcepts {
		concept := &greetingConcepts[i]
		for lang, patterns := range concept.patterns {
			for _, pattern := range patterns {
				p.byLanguage[lang] = append(p.byLanguage[lang], greetingPattern{
					phrase:  joinWords(pattern),
					concept: concept,
				})
			}
		}
	}
	for lang := range p.byLanguage {
		patterns := p.byLanguage[lang]
		sort.SliceStable(patterns, func(i, j int) bool {
			return utf8.RuneCountInString(patterns[i].phrase) > utf8.RuneCountInString(patterns[j].phrase)
		})
	}
	for _, phrase := range commonPhrases {
		p.common = append(p.common, joinWords(phrase))
	}
	return p
}

// MatchGreeting returns the canned target-language response when text is essentially
// only a greeting in the source language. The longest contained pattern decides.
func (p *Phrases) MatchGreeting(text, sourceLanguage, targetLanguage string) (string, bool) {
	padded := paddedWords(text)
	for _, pattern := range p.byLanguage[baseLanguage(sourceLanguage)] {
		needle := " " + pattern.phrase + " "
		if !strings.Contains(padded, needle) {
			continue
		}
		response, ok := pattern.concept.canonical[baseLanguage(targetLanguage)]
		if !ok {
			return "", false
		}
		leftover := strings.Replace(padded, needle, " ", 1)
		for _, word := range util.Words(leftover) {
			if _, filler := fillerWords[word]; !filler {
				return "", false
			}
		}
		return response, true
	}
	return "", false
}

// IsGreeting reports whether text contains any greeting of its language.
func (p *Phrases) IsGreeting(text, language string) bool {
	padded := paddedWords(text)
	for _, pattern := range p.byLanguage[baseLanguage(language)] {
		if strings.Contains(padded, " "+pattern.phrase+" ") {
			return true
		}
	}
	return false
}

func (p *Phrases) IsCommonPhrase(text string) bool {
	padded := paddedWords(text)
	for _, phrase := range p.common {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

func joinWords(s string) string {
	return strings.Join(util.Words(s), " ")
}

func paddedWords(s string) string {
	return " " + joinWords(s) + " "
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}
