// Package openfisca models the OpenFisca web API request contract and the
// mapping of survey answers onto its entities and variables.
package openfisca

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/gowebpki/jcs"
)

// EntityKind is an OpenFisca entity type, named by its plural request key
type EntityKind string

const (
	Individuals   EntityKind = "individus"
	Households    EntityKind = "menages"
	Families      EntityKind = "familles"
	TaxHouseholds EntityKind = "foyers_fiscaux"
)

// EntityKinds lists every entity kind in request order
var EntityKinds = []EntityKind{Individuals, Households, Families, TaxHouseholds}

// Role names of the group entities' membership lists
const (
	RoleReferencePerson = "personne_de_reference"
	RoleSpouse          = "conjoint"
	RoleChildren        = "enfants"
	RoleParents         = "parents"
	RoleDeclarants      = "declarants"
	RoleDependents      = "personnes_a_charge"
)

// Roles returns the membership lists an entity of this kind carries, in
// the order they are written. Individuals have none.
func (k EntityKind) Roles() []string {
	switch k {
	case Households:
		return []string{RoleReferencePerson, RoleSpouse, RoleChildren}
	case Families:
		return []string{RoleParents, RoleChildren}
	case TaxHouseholds:
		return []string{RoleDeclarants, RoleDependents}
	default:
		return nil
	}
}

// IsRole reports whether name is one of the kind's membership lists
func (k EntityKind) IsRole(name string) bool {
	return slices.Contains(k.Roles(), name)
}

// PeriodValues maps a period to a value. A nil value asks the engine to
// compute the variable for that period.
type PeriodValues map[string]any

// Entity is one entity instance: membership lists plus variables
type Entity struct {
	Roles     map[string][]string
	Variables map[string]PeriodValues
}

func newEntity() *Entity {
	return &Entity{
		Roles:     make(map[string][]string),
		Variables: make(map[string]PeriodValues),
	}
}

// Value returns the value of a variable at a period
func (e *Entity) Value(variable, period string) (any, bool) {
	pv, ok := e.Variables[variable]
	if !ok {
		return nil, false
	}
	v, ok := pv[period]
	return v, ok
}

// MarshalJSON flattens roles and variables into one object, the shape the
// API expects.
func (e *Entity) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Roles)+len(e.Variables))
	for role, members := range e.Roles {
		if members == nil {
			members = []string{}
		}
		flat[role] = members
	}
	for name, values := range e.Variables {
		if _, clash := flat[name]; clash {
			return nil, fmt.Errorf("%s is both a membership list and a variable", name)
		}
		flat[name] = values
	}
	return json.Marshal(flat)
}

// Entities maps instance ids to entities of one kind
type Entities map[string]*Entity

// CalculationRequest is the body sent to the engine's /calculate endpoint
type CalculationRequest map[EntityKind]Entities

// Entity returns the instance of the given kind and id
func (r CalculationRequest) Entity(kind EntityKind, id string) (*Entity, bool) {
	instances, ok := r[kind]
	if !ok {
		return nil, false
	}
	e, ok := instances[id]
	return e, ok
}

// Value returns a variable value on an entity instance at a period
func (r CalculationRequest) Value(kind EntityKind, id, variable, period string) (any, bool) {
	e, ok := r.Entity(kind, id)
	if !ok {
		return nil, false
	}
	return e.Value(variable, period)
}

// Canonical encodes the request as RFC 8785 canonical JSON, so that equal
// requests encode to equal bytes
func (r CalculationRequest) Canonical() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}

// Digest is the hex SHA-256 of the canonical encoding
func (r CalculationRequest) Digest() (string, error) {
	data, err := r.Canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CalculationResponse is what the engine returns: either the request shape
// filled with computed values, or an error message.
type CalculationResponse struct {
	Error    string
	Entities CalculationRequest
}

// UnmarshalJSON accepts both the populated entity shape and {"error": "..."}.
func (r *CalculationResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("calculation response must be an object: %w", err)
	}

	*r = CalculationResponse{Entities: make(CalculationRequest)}
	if msg, ok := raw["error"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			s = string(msg)
		}
		r.Error = s
		return nil
	}

	for _, kind := range EntityKinds {
		body, ok := raw[string(kind)]
		if !ok {
			continue
		}
		var instances map[string]map[string]json.RawMessage
		if err := json.Unmarshal(body, &instances); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		entities := make(Entities, len(instances))
		for id, fields := range instances {
			e, err := decodeEntity(kind, fields)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", kind, id, err)
			}
			entities[id] = e
		}
		r.Entities[kind] = entities
	}
	return nil
}

// MarshalJSON writes the error form or the entity form
func (r CalculationResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	return json.Marshal(r.Entities)
}

func decodeEntity(kind EntityKind, fields map[string]json.RawMessage) (*Entity, error) {
	e := newEntity()
	for name, body := range fields {
		if kind.IsRole(name) {
			var members []string
			if err := json.Unmarshal(body, &members); err != nil {
				return nil, fmt.Errorf("membership list %s: %w", name, err)
			}
			e.Roles[name] = members
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var values map[string]any
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		e.Variables[name] = PeriodValues(values)
	}
	return e, nil
}
