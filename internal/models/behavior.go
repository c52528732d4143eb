package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind distinguishes behaviors with a duration from instantaneous ones.
type Kind int

const (
	// PointKind behaviors are coded as a single event.
	PointKind Kind = iota
	// StateKind behaviors are coded as paired open/close events.
	StateKind
)

// String returns the project-file spelling of the kind.
func (k Kind) String() string {
	if k == StateKind {
		return "State event"
	}
	return "Point event"
}

// ParseKind reads the "type" field of an ethogram entry.
// "State event" and "State event with coding map" are states, everything else is a point.
func ParseKind(s string) Kind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "state") {
		return StateKind
	}
	return PointKind
}

// Behavior is one ethogram entry. It is edited by the project editor and read-only here.
type Behavior struct {
	Key         string   // Single-character coding shortcut
	Code        string   // Unique label
	Kind        Kind     // STATE or POINT
	Description string   // Free text
	Modifiers   string   // Modifier sets: values separated by ",", sets separated by "|"
	Excluded    []string // Codes force-closed when this behavior opens
	Category    string   // Optional behavioral category
	CodingMap   string   // Optional coding map name
}

// ModifierSets splits the modifiers specification into its sets of values.
func (b Behavior) ModifierSets() [][]string {
	if strings.TrimSpace(b.Modifiers) == "" {
		return nil
	}
	var sets [][]string
	for _, set := range strings.Split(b.Modifiers, ModifierSeparator) {
		var values []string
		for _, v := range strings.Split(set, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		sets = append(sets, values)
	}
	return sets
}

// Excludes reports whether opening b must close code for the same subject.
func (b Behavior) Excludes(code string) bool {
	for _, c := range b.Excluded {
		if c == code {
			return true
		}
	}
	return false
}

// behaviorJSON is the ethogram entry shape in the project file.
type behaviorJSON struct {
	Type        string `json:"type"`
	Key         string `json:"key"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Modifiers   string `json:"modifiers"`
	Excluded    string `json:"excluded"`
	CodingMap   string `json:"coding map"`
	Category    string `json:"category"`
}

// MarshalJSON writes the ethogram entry with the excluded list as comma-separated text.
func (b Behavior) MarshalJSON() ([]byte, error) {
	return json.Marshal(behaviorJSON{
		Type:        b.Kind.String(),
		Key:         b.Key,
		Code:        b.Code,
		Description: b.Description,
		Modifiers:   b.Modifiers,
		Excluded:    strings.Join(b.Excluded, ","),
		CodingMap:   b.CodingMap,
		Category:    b.Category,
	})
}

// UnmarshalJSON reads an ethogram entry.
func (b *Behavior) UnmarshalJSON(data []byte) error {
	var raw behaviorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode behavior: %w", err)
	}
	if raw.Code == "" {
		return fmt.Errorf("decode behavior: missing code")
	}

	var excluded []string
	for _, c := range strings.Split(raw.Excluded, ",") {
		if c = strings.TrimSpace(c); c != "" {
			excluded = append(excluded, c)
		}
	}

	*b = Behavior{
		Key:         raw.Key,
		Code:        raw.Code,
		Kind:        ParseKind(raw.Type),
		Description: raw.Description,
		Modifiers:   raw.Modifiers,
		Excluded:    excluded,
		Category:    raw.Category,
		CodingMap:   raw.CodingMap,
	}
	return nil
}

// Subject is a coded individual. The empty name stands for "no focal subject".
type Subject struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Ethogram is the ordered set of behavior definitions of a project.
type Ethogram struct {
	behaviors []Behavior
	index     map[string]int
}

// NewEthogram builds an ethogram keeping the given order.
// A later definition with an already used code replaces the earlier one.
func NewEthogram(behaviors ...Behavior) *Ethogram {
	e := &Ethogram{index: make(map[string]int, len(behaviors))}
	for _, b := range behaviors {
		if i, ok := e.index[b.Code]; ok {
			e.behaviors[i] = b
			continue
		}
		e.index[b.Code] = len(e.behaviors)
		e.behaviors = append(e.behaviors, b)
	}
	return e
}

// Behaviors returns the definitions in ethogram order.
func (e *Ethogram) Behaviors() []Behavior {
	out := make([]Behavior, len(e.behaviors))
	copy(out, e.behaviors)
	return out
}

// Lookup finds a behavior by code.
func (e *Ethogram) Lookup(code string) (Behavior, bool) {
	i, ok := e.index[code]
	if !ok {
		return Behavior{}, false
	}
	return e.behaviors[i], true
}

// KindOf returns the kind of a code. Unknown codes are reported as points with ok=false.
func (e *Ethogram) KindOf(code string) (Kind, bool) {
	b, ok := e.Lookup(code)
	if !ok {
		return PointKind, false
	}
	return b.Kind, true
}

// IsState reports whether code is a known STATE behavior.
func (e *Ethogram) IsState(code string) bool {
	k, ok := e.KindOf(code)
	return ok && k == StateKind
}

// Codes returns every behavior code in ethogram order.
func (e *Ethogram) Codes() []string {
	codes := make([]string, 0, len(e.behaviors))
	for _, b := range e.behaviors {
		codes = append(codes, b.Code)
	}
	return codes
}

// StateCodes returns the STATE behavior codes in ethogram order.
func (e *Ethogram) StateCodes() []string {
	var codes []string
	for _, b := range e.behaviors {
		if b.Kind == StateKind {
			codes = append(codes, b.Code)
		}
	}
	return codes
}

// CategoryOf returns the category label of code, "" when none.
func (e *Ethogram) CategoryOf(code string) string {
	b, _ := e.Lookup(code)
	return b.Category
}

// Categories returns the distinct category labels in first-use order.
func (e *Ethogram) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range e.behaviors {
		if b.Category == "" || seen[b.Category] {
			continue
		}
		seen[b.Category] = true
		out = append(out, b.Category)
	}
	return out
}
