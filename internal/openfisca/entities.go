package openfisca

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// MappingErrorType classifies a MappingError
type MappingErrorType string

const (
	MappingConflict          MappingErrorType = "MAPPING_ERROR"
	MappingUnknownVariable   MappingErrorType = "UNKNOWN_VARIABLE"
	MappingUnexpectedValue   MappingErrorType = "UNEXPECTED_VALUE"
	MappingUnknownPeriod     MappingErrorType = "UNKNOWN_PERIOD"
	MappingProtectedVariable MappingErrorType = "PROTECTED_VARIABLE"
)

// MappingError records one answer that could not be reconciled into the
// request. It is collected, never fatal.
type MappingError struct {
	Type      MappingErrorType `yaml:"type" json:"type"`
	Message   string           `yaml:"message" json:"message"`
	AnswerKey string           `yaml:"answerKey" json:"answerKey"`
	Err       error            `yaml:"-" json:"-"`
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Type, e.AnswerKey, e.Message)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// ProtectedVariableError is returned when a generic write targets a
// membership list. Those change only through the relationship methods.
type ProtectedVariableError struct {
	Entity    EntityKind
	Name      string
	AnswerKey string
}

func (e *ProtectedVariableError) Error() string {
	return fmt.Sprintf("%s is a membership list of %s and cannot be set by %s", e.Name, e.Entity, e.AnswerKey)
}

// EntityManager accumulates the variables of one entity kind. The primary
// instance receives every variable; other instances of the same kind
// (children on the individual manager) only exist to be referenced by
// membership lists. It is not safe for concurrent use.
type EntityManager struct {
	kind     EntityKind
	id       string
	selfID   string
	entities Entities
	// sources records which answer wrote each variable, by period
	sources map[string]map[string]string
}

func newEntityManager(kind EntityKind, id, selfID string) *EntityManager {
	m := &EntityManager{kind: kind, id: id, selfID: selfID}
	m.Reset()
	return m
}

// Kind returns the entity kind managed
func (m *EntityManager) Kind() EntityKind { return m.kind }

// ID returns the primary instance id
func (m *EntityManager) ID() string { return m.id }

// Reset drops every variable and extra instance and restores the initial
// membership structure.
func (m *EntityManager) Reset() {
	primary := newEntity()
	for _, role := range m.kind.Roles() {
		primary.Roles[role] = []string{}
	}
	if roles := m.kind.Roles(); len(roles) > 0 {
		// the first role always holds the self individual
		primary.Roles[roles[0]] = []string{m.selfID}
	}
	m.entities = Entities{m.id: primary}
	m.sources = make(map[string]map[string]string)
}

func (m *EntityManager) primary() *Entity {
	return m.entities[m.id]
}

// Value returns the primary instance's value of a variable at a period
func (m *EntityManager) Value(name, period string) (any, bool) {
	return m.primary().Value(name, period)
}

// Has reports whether the variable holds anything, even a placeholder, at
// the period.
func (m *EntityManager) Has(name, period string) bool {
	_, ok := m.Value(name, period)
	return ok
}

// Source returns the answer key that wrote the variable at the period
func (m *EntityManager) Source(name, period string) (string, bool) {
	src, ok := m.sources[name][period]
	return src, ok
}

// Members returns a copy of a membership list
func (m *EntityManager) Members(role string) []string {
	return slices.Clone(m.primary().Roles[role])
}

// AddVariable writes value (nil meaning "compute this") to the variable at
// period. The same merge policy applies to every entity kind:
//   - nothing at that period yet: write
//   - existing placeholder or equal value: overwrite
//   - new placeholder over a concrete value: keep the concrete value
//   - two different concrete values: keep the first, return a MappingError
func (m *EntityManager) AddVariable(name string, value any, period, answerKey string) error {
	if m.kind.IsRole(name) {
		return &ProtectedVariableError{Entity: m.kind, Name: name, AnswerKey: answerKey}
	}

	existing, ok := m.Value(name, period)
	switch {
	case !ok, existing == nil:
		m.set(name, value, period, answerKey)
	case value == nil:
		// concrete value already there
	case reflect.DeepEqual(existing, value):
		m.primary().Variables[name][period] = value
	default:
		prev, _ := m.Source(name, period)
		return &MappingError{
			Type: MappingConflict,
			Message: fmt.Sprintf("%s.%s[%s]: %v from %s conflicts with %v already set by %s",
				m.kind, name, period, value, answerKey, existing, prev),
			AnswerKey: answerKey,
		}
	}
	return nil
}

// SupersedeVariable writes like AddVariable, except that a refinable value
// written by the supersedes answer is replaced instead of conflicting.
// Refinement answers use it to make a coarser answer more precise.
func (m *EntityManager) SupersedeVariable(name string, value any, period, answerKey, supersedes string, refinable []any) error {
	if m.kind.IsRole(name) {
		return &ProtectedVariableError{Entity: m.kind, Name: name, AnswerKey: answerKey}
	}
	if src, ok := m.Source(name, period); ok && src == supersedes && value != nil {
		existing, _ := m.Value(name, period)
		refines := func(v any) bool { return reflect.DeepEqual(v, existing) }
		if slices.ContainsFunc(refinable, refines) {
			m.set(name, value, period, answerKey)
			return nil
		}
	}
	return m.AddVariable(name, value, period, answerKey)
}

func (m *EntityManager) set(name string, value any, period, answerKey string) {
	vars := m.primary().Variables
	if vars[name] == nil {
		vars[name] = make(PeriodValues)
	}
	vars[name][period] = value

	if m.sources[name] == nil {
		m.sources[name] = make(map[string]string)
	}
	m.sources[name][period] = answerKey
}

func (m *EntityManager) addMember(role, id string) error {
	if !m.kind.IsRole(role) {
		return fmt.Errorf("%s has no membership list %s", m.kind, role)
	}
	for _, r := range m.kind.Roles() {
		if slices.Contains(m.primary().Roles[r], id) {
			return fmt.Errorf("%s is already a member of %s %s (%s)", id, m.kind, m.id, r)
		}
	}
	m.primary().Roles[role] = append(m.primary().Roles[role], id)
	return nil
}

// Entities returns a deep copy of every instance managed
func (m *EntityManager) Entities() Entities {
	out := make(Entities, len(m.entities))
	for id, e := range m.entities {
		out[id] = cloneEntity(e)
	}
	return out
}

func cloneEntity(e *Entity) *Entity {
	c := newEntity()
	for role, members := range e.Roles {
		c.Roles[role] = slices.Clone(members)
	}
	for name, values := range e.Variables {
		c.Variables[name] = maps.Clone(values)
	}
	return c
}

// InstanceID returns the id of the self instance of an entity kind
func InstanceID(kind EntityKind, selfID string) string {
	switch kind {
	case Households:
		return "menage_" + selfID
	case Families:
		return "famille_" + selfID
	case TaxHouseholds:
		return "foyer_fiscal_" + selfID
	default:
		return selfID
	}
}

// IndividualManager manages the self individual and any other person
// referenced by the group entities.
type IndividualManager struct {
	*EntityManager
}

// NewIndividualManager creates the manager with the self individual
func NewIndividualManager(selfID string) *IndividualManager {
	return &IndividualManager{newEntityManager(Individuals, selfID, selfID)}
}

// AddIndividual declares another person. Ids must be unique.
func (m *IndividualManager) AddIndividual(id string) error {
	if _, exists := m.entities[id]; exists {
		return fmt.Errorf("individual %s already exists", id)
	}
	m.entities[id] = newEntity()
	return nil
}

// HouseholdManager manages the self menage
type HouseholdManager struct {
	*EntityManager
}

// NewHouseholdManager creates menage_{selfID} with self as reference person
func NewHouseholdManager(selfID string) *HouseholdManager {
	return &HouseholdManager{newEntityManager(Households, InstanceID(Households, selfID), selfID)}
}

// AddSpouse adds an individual to conjoint
func (m *HouseholdManager) AddSpouse(id string) error { return m.addMember(RoleSpouse, id) }

// AddChild adds an individual to enfants
func (m *HouseholdManager) AddChild(id string) error { return m.addMember(RoleChildren, id) }

// FamilyManager manages the self famille
type FamilyManager struct {
	*EntityManager
}

// NewFamilyManager creates famille_{selfID} with self as parent
func NewFamilyManager(selfID string) *FamilyManager {
	return &FamilyManager{newEntityManager(Families, InstanceID(Families, selfID), selfID)}
}

// AddSpouse adds an individual to parents
func (m *FamilyManager) AddSpouse(id string) error { return m.addMember(RoleParents, id) }

// AddChild adds an individual to enfants
func (m *FamilyManager) AddChild(id string) error { return m.addMember(RoleChildren, id) }

// TaxHouseholdManager manages the self foyer fiscal
type TaxHouseholdManager struct {
	*EntityManager
}

// NewTaxHouseholdManager creates foyer_fiscal_{selfID} with self as declarant
func NewTaxHouseholdManager(selfID string) *TaxHouseholdManager {
	return &TaxHouseholdManager{newEntityManager(TaxHouseholds, InstanceID(TaxHouseholds, selfID), selfID)}
}

// AddSpouse adds an individual to declarants
func (m *TaxHouseholdManager) AddSpouse(id string) error { return m.addMember(RoleDeclarants, id) }

// AddChild adds an individual to personnes_a_charge
func (m *TaxHouseholdManager) AddChild(id string) error { return m.addMember(RoleDependents, id) }

// Managers groups one manager per entity kind around a self individual
type Managers struct {
	Individuals   *IndividualManager
	Households    *HouseholdManager
	Families      *FamilyManager
	TaxHouseholds *TaxHouseholdManager
}

// NewManagers creates the four managers for selfID
func NewManagers(selfID string) *Managers {
	return &Managers{
		Individuals:   NewIndividualManager(selfID),
		Households:    NewHouseholdManager(selfID),
		Families:      NewFamilyManager(selfID),
		TaxHouseholds: NewTaxHouseholdManager(selfID),
	}
}

// For returns the manager of an entity kind
func (ms *Managers) For(kind EntityKind) (*EntityManager, error) {
	switch kind {
	case Individuals:
		return ms.Individuals.EntityManager, nil
	case Households:
		return ms.Households.EntityManager, nil
	case Families:
		return ms.Families.EntityManager, nil
	case TaxHouseholds:
		return ms.TaxHouseholds.EntityManager, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// AddChild declares a child individual and attaches it to every group
func (ms *Managers) AddChild(id string) error {
	if err := ms.Individuals.AddIndividual(id); err != nil {
		return err
	}
	if err := ms.Households.AddChild(id); err != nil {
		return err
	}
	if err := ms.Families.AddChild(id); err != nil {
		return err
	}
	return ms.TaxHouseholds.AddChild(id)
}

// Reset resets all four managers
func (ms *Managers) Reset() {
	ms.Individuals.Reset()
	ms.Households.Reset()
	ms.Families.Reset()
	ms.TaxHouseholds.Reset()
}

// Request snapshots the managers into a calculation request
func (ms *Managers) Request() CalculationRequest {
	return CalculationRequest{
		Individuals:   ms.Individuals.Entities(),
		Households:    ms.Households.Entities(),
		Families:      ms.Families.Entities(),
		TaxHouseholds: ms.TaxHouseholds.Entities(),
	}
}
