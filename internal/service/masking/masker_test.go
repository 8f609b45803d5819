package masking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
)

func newTestMasker() *Masker {
	return NewMasker(nil, 0, zap.NewNop())
}

func TestDetectNameAndAccount(t *testing.T) {
	m := newTestMasker()
	text := "My name is John Smith, account 12345678"

	entities := m.Detect(context.Background(), text)
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %+v", entities)
	}
	if entities[0].Type != domain.EntityPerson || entities[0].Text != "John Smith" {
		t.Fatalf("unexpected first entity: %+v", entities[0])
	}
	if entities[1].Type != domain.EntityAccountNumber || entities[1].Text != "12345678" {
		t.Fatalf("unexpected second entity: %+v", entities[1])
	}

	masked, mm := m.Mask(text, entities)
	if mm.Len() != 2 {
		t.Fatalf("expected 2 placeholders, got %v", mm.Placeholders)
	}
	if masked != "My name is __PERSON_0__, account __ACCOUNT_NUMBER_1__" {
		t.Fatalf("unexpected masked text %q", masked)
	}
	if strings.Contains(masked, "John") || strings.Contains(masked, "12345678") {
		t.Fatalf("sensitive text leaked: %q", masked)
	}

	restored := m.Unmask(masked, mm)
	if restored != text {
		t.Fatalf("round trip failed: %q", restored)
	}
	if !m.Validate(restored) {
		t.Fatalf("restored text should validate")
	}
}

func TestDetectPlainRequestHasNoEntities(t *testing.T) {
	m := newTestMasker()
	text := "Hello, I need help with my account balance"

	entities := m.Detect(context.Background(), text)
	if len(entities) != 0 {
		t.Fatalf("expected no entities, got %+v", entities)
	}
	masked, mm := m.Mask(text, entities)
	if masked != text || mm.Len() != 0 {
		t.Fatalf("mask should be a no-op, got %q %v", masked, mm.Placeholders)
	}
	if !m.Validate(masked) {
		t.Fatalf("plain text should validate")
	}
}

func TestDetectStructuredEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[domain.EntityType]string
	}{
		{
			name: "ssn",
			text: "my social is 123-45-6789",
			want: map[domain.EntityType]string{domain.EntitySSN: "123-45-6789"},
		},
		{
			name: "routing and account",
			text: "routing number 021000021 and account 000123456789",
			want: map[domain.EntityType]string{
				domain.EntityRoutingNumber: "021000021",
				domain.EntityAccountNumber: "000123456789",
			},
		},
		{
			name: "amount and date",
			text: "Please transfer $1,500.00 to savings on March 3rd",
			want: map[domain.EntityType]string{
				domain.EntityAmount: "$1,500.00",
				domain.EntityDate:   "March 3rd",
			},
		},
		{
			name: "spoken amount and numeric date",
			text: "I deposited 250 dollars on 04/15/2024",
			want: map[domain.EntityType]string{
				domain.EntityAmount: "250 dollars",
				domain.EntityDate:   "04/15/2024",
			},
		},
		{
			name: "digits without keyword",
			text: "the code was 12345678",
			want: map[domain.EntityType]string{},
		},
	}

	m := newTestMasker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := m.Detect(context.Background(), tt.text)
			got := make(map[domain.EntityType]string)
			for _, e := range entities {
				got[e.Type] = e.Text
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, entities)
			}
			for typ, text := range tt.want {
				if got[typ] != text {
					t.Fatalf("expected %s %q, got %q", typ, text, got[typ])
				}
			}
		})
	}
}

func TestDetectNames(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "Good morning Maria Lopez", want: "Maria Lopez"},
		{text: "I spoke with Mrs. Nguyen yesterday", want: "Nguyen"},
		{text: "this is Ana and I need a card", want: "Ana"},
		{text: "Thank You", want: ""},
		{text: "Good Morning Credit Union", want: ""},
	}
	for _, tt := range tests {
		entities := DetectNames(tt.text)
		got := ""
		for _, e := range Resolve(entities) {
			got = e.Text
		}
		if got != tt.want {
			t.Fatalf("DetectNames(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestResolvePrefersPriorityThenLength(t *testing.T) {
	entities := []domain.Entity{
		{Type: domain.EntityAccountNumber, Text: "123456789", Start: 10, End: 19},
		{Type: domain.EntityRoutingNumber, Text: "123456789", Start: 10, End: 19},
		{Type: domain.EntityPerson, Text: "Ann Lee", Start: 0, End: 7},
		{Type: domain.EntityPerson, Text: "Ann", Start: 0, End: 3},
		{Type: domain.EntityPerson, Text: "Ann", Start: 0, End: 3},
	}
	got := Resolve(entities)
	if len(got) != 2 {
		t.Fatalf("expected 2 entities, got %+v", got)
	}
	if got[0].Text != "Ann Lee" || got[1].Type != domain.EntityRoutingNumber {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestMaskPersonCaseInsensitive(t *testing.T) {
	m := newTestMasker()
	text := "John Smith called. JOHN SMITH is upset. Ask for john smith."
	entities := []domain.Entity{{Type: domain.EntityPerson, Text: "John Smith", Start: 0, End: 10}}

	masked, mm := m.Mask(text, entities)
	if strings.Contains(strings.ToLower(masked), "smith") {
		t.Fatalf("name leaked: %q", masked)
	}
	if mm.Len() != 3 {
		t.Fatalf("expected one placeholder per casing, got %v", mm.Placeholders)
	}
	if got := m.Unmask(masked, mm); got != text {
		t.Fatalf("round trip failed: %q", got)
	}
}

func TestMaskLongerLiteralFirst(t *testing.T) {
	m := newTestMasker()
	text := "John Smith and John"
	entities := []domain.Entity{
		{Type: domain.EntityPerson, Text: "John", Start: 15, End: 19},
		{Type: domain.EntityPerson, Text: "John Smith", Start: 0, End: 10},
	}

	masked, mm := m.Mask(text, entities)
	if masked != "__PERSON_0__ and __PERSON_1__" {
		t.Fatalf("unexpected masked text %q", masked)
	}
	if original, _ := mm.Lookup("__PERSON_0__"); original != "John Smith" {
		t.Fatalf("unexpected original %q", original)
	}
	if got := m.Unmask(masked, mm); got != text {
		t.Fatalf("round trip failed: %q", got)
	}
}

func TestMaskNeverTouchesIssuedPlaceholders(t *testing.T) {
	m := newTestMasker()
	text := "Date: 01/02/2024"
	entities := []domain.Entity{
		{Type: domain.EntityDate, Text: "01/02/2024", Start: 6, End: 16},
		{Type: domain.EntityPerson, Text: "date", Start: 0, End: 4},
	}

	masked, mm := m.Mask(text, entities)
	if masked != "__PERSON_1__: __DATE_0__" {
		t.Fatalf("unexpected masked text %q", masked)
	}
	if got := m.Unmask(masked, mm); got != text {
		t.Fatalf("round trip failed: %q", got)
	}
}

func TestMaskSkipsPlaceholdersPresentInInput(t *testing.T) {
	m := newTestMasker()
	text := "Ticket __PERSON_0__ belongs to Ana Diaz"
	entities := []domain.Entity{{Type: domain.EntityPerson, Text: "Ana Diaz", Start: 31, End: 39}}

	masked, mm := m.Mask(text, entities)
	if mm.Placeholders[0] != "__PERSON_1__" {
		t.Fatalf("expected collision to be skipped, got %v", mm.Placeholders)
	}
	if masked != "Ticket __PERSON_0__ belongs to __PERSON_1__" {
		t.Fatalf("unexpected masked text %q", masked)
	}
	if got := m.Unmask(masked, mm); got != text {
		t.Fatalf("round trip failed: %q", got)
	}
}

func TestMaskEscapesMetacharacters(t *testing.T) {
	m := newTestMasker()
	text := "Send $1,000.00 not $1a000b00"
	entities := []domain.Entity{{Type: domain.EntityAmount, Text: "$1,000.00", Start: 5, End: 14}}

	masked, mm := m.Mask(text, entities)
	if masked != "Send __AMOUNT_0__ not $1a000b00" {
		t.Fatalf("unexpected masked text %q", masked)
	}
	if got := m.Unmask(masked, mm); got != text {
		t.Fatalf("round trip failed: %q", got)
	}
}

func TestUnmaskToleratesCaseDrift(t *testing.T) {
	m := newTestMasker()
	mm := domain.NewMaskingMap()
	mm.Add("__PERSON_0__", "Ana", domain.EntityPerson)

	if got := m.Unmask("Hola __person_0__", mm); got != "Hola Ana" {
		t.Fatalf("unexpected unmask result %q", got)
	}
}

func TestValidateDetectsResiduals(t *testing.T) {
	m := newTestMasker()
	if m.Validate("Hola __ACCOUNT_NUMBER_3__") {
		t.Fatalf("expected residual placeholder to fail validation")
	}
	if got := Residuals("a __DATE_1__ b __SSN_2__"); len(got) != 2 {
		t.Fatalf("unexpected residuals %v", got)
	}
}

func TestRoundTripProperty(t *testing.T) {
	m := newTestMasker()
	texts := []string{
		"My name is John Smith, account 12345678",
		"Mr. Garcia wants to move $2,000 from checking 9876543210 on Jan 5, 2025",
		"routing 021000021, ssn 123-45-6789, amount 40 dollars",
		"Call me Maria Lopez. maria lopez is my legal name (MARIA LOPEZ).",
		"Nothing sensitive here.",
		"Symbols [a+b] (c|d) ^$ . * ? with account 12345678901",
	}
	for _, text := range texts {
		entities := m.Detect(context.Background(), text)
		masked, mm := m.Mask(text, entities)
		restored := m.Unmask(masked, mm)
		if restored != text {
			t.Fatalf("round trip failed for %q: masked=%q restored=%q", text, masked, restored)
		}
		if !m.Validate(restored) {
			t.Fatalf("validate failed for %q", restored)
		}
	}
}

type fakeRecognizer struct {
	entities []domain.Entity
	err      error
	calls    int
}

func (f *fakeRecognizer) Detect(context.Context, string) ([]domain.Entity, error) {
	f.calls++
	return f.entities, f.err
}

func TestRecognizerFailureFallsBackToHeuristic(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("connection refused")}
	m := NewMasker(rec, 0, zap.NewNop())

	entities := m.Detect(context.Background(), "My name is John Smith")
	if rec.calls != 1 {
		t.Fatalf("expected recognizer to be called")
	}
	if len(entities) != 1 || entities[0].Text != "John Smith" {
		t.Fatalf("expected heuristic detection, got %+v", entities)
	}
}

func TestRecognizerResultsReplaceHeuristic(t *testing.T) {
	text := "Ana asked about John Smith"
	rec := &fakeRecognizer{entities: []domain.Entity{{Type: domain.EntityPerson, Text: "Ana", Start: 0, End: 3}}}
	m := NewMasker(rec, 0, zap.NewNop())

	entities := m.Detect(context.Background(), text)
	if len(entities) != 1 || entities[0].Text != "Ana" {
		t.Fatalf("expected recognizer entities only, got %+v", entities)
	}
}
