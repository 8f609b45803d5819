package domain

import "fmt"

// EntityType is the closed set of sensitive span kinds the masker understands.
type EntityType int

const (
	EntityPerson EntityType = iota
	EntityAccountNumber
	EntityRoutingNumber
	EntityAmount
	EntityDate
	EntitySSN
)

var entityTypeNames = map[EntityType]string{
	EntityPerson:        "PERSON",
	EntityAccountNumber: "ACCOUNT_NUMBER",
	EntityRoutingNumber: "ROUTING_NUMBER",
	EntityAmount:        "AMOUNT",
	EntityDate:          "DATE",
	EntitySSN:           "SSN",
}

func (t EntityType) String() string {
	if name, ok := entityTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ENTITY(%d)", int(t))
}

// Priority orders overlapping detections; higher wins.
func (t EntityType) Priority() int {
	switch t {
	case EntitySSN:
		return 6
	case EntityRoutingNumber:
		return 5
	case EntityAccountNumber:
		return 4
	case EntityAmount:
		return 3
	case EntityDate:
		return 2
	case EntityPerson:
		return 1
	default:
		return 0
	}
}

// ParseEntityType maps a label such as "PERSON" or "ACCOUNT_NUMBER" back to its type.
func ParseEntityType(label string) (EntityType, bool) {
	for t, name := range entityTypeNames {
		if name == label {
			return t, true
		}
	}
	return 0, false
}

// Entity is a detected sensitive span. Start and End are byte offsets into the source text.
type Entity struct {
	Type  EntityType
	Text  string
	Start int
	End   int
}

func (e Entity) Len() int {
	return e.End - e.Start
}

func (e Entity) Overlaps(other Entity) bool {
	return e.Start < other.End && other.Start < e.End
}

// MaskingMap records placeholder substitutions for a single request, in issue order.
type MaskingMap struct {
	Placeholders []string
	Originals    map[string]string
	Types        map[string]EntityType
}

func NewMaskingMap() *MaskingMap {
	return &MaskingMap{
		Originals: make(map[string]string),
		Types:     make(map[string]EntityType),
	}
}

func (m *MaskingMap) Add(placeholder, original string, entityType EntityType) {
	m.Placeholders = append(m.Placeholders, placeholder)
	m.Originals[placeholder] = original
	m.Types[placeholder] = entityType
}

func (m *MaskingMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Placeholders)
}

// Lookup returns the original text behind a placeholder.
func (m *MaskingMap) Lookup(placeholder string) (string, bool) {
	if m == nil {
		return "", false
	}
	original, ok := m.Originals[placeholder]
	return original, ok
}
