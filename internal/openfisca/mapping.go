package openfisca

import (
	"fmt"
	"sort"
)

// Relationship names an answer that shapes the entity membership lists
// instead of setting a variable.
type Relationship string

const (
	// RelationChildren adds one child individual per unit of the answer
	RelationChildren Relationship = "children"
)

// Mapping describes how one answer key reaches the engine. Exactly one of
// Variable (direct mapping), Dispatch or Relationship drives the write; a
// dispatch mapping may still name a Variable used for placeholders and
// extraction.
type Mapping struct {
	Entity       EntityKind
	Variable     string
	Period       PeriodType
	Dispatch     string
	Relationship Relationship
	// Refines is the answer key this one makes more precise. Its writes
	// supersede the refined answer's writes, but only those holding one of
	// the Refinable values; any other value is a genuine conflict.
	Refines   string
	Refinable []any
}

// Direct reports whether the answer value is written as-is to Variable
func (m Mapping) Direct() bool {
	return m.Dispatch == "" && m.Relationship == "" && m.Variable != ""
}

// Table maps answer keys to their mapping for one entity kind
type Table map[string]Mapping

// Keys returns the table's answer keys sorted
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func table(kind EntityKind, entries map[string]Mapping) Table {
	t := make(Table, len(entries))
	for key, m := range entries {
		m.Entity = kind
		t[key] = m
	}
	return t
}

// IndividualTable holds the answer keys written on the self individual
var IndividualTable = table(Individuals, map[string]Mapping{
	"date-naissance":                   {Variable: "date_naissance", Period: PeriodEternity},
	"age":                              {Variable: "age", Period: PeriodMonth},
	"nationalite":                      {Variable: "nationalite", Period: PeriodMonth},
	"statut-professionnel":             {Variable: "activite", Period: PeriodMonth, Dispatch: "statut-professionnel"},
	"echelon-bourse":                   {Variable: "boursier", Period: PeriodMonth, Dispatch: "echelon-bourse"},
	"situation-familiale":              {Variable: "statut_marital", Period: PeriodMonth, Dispatch: "situation-familiale"},
	"mobilite-etudes":                  {Variable: "sortie_academie", Period: PeriodMonth, Dispatch: "mobilite-etudes"},
	"situations-particulieres":         {Variable: "handicap", Period: PeriodMonth, Dispatch: "situations-particulieres"},
	"alternant":                        {Variable: "alternant", Period: PeriodMonth},
	"boursier":                         {Variable: "boursier", Period: PeriodMonth},
	"salaire-imposable-mensuel":        {Variable: "salaire_imposable", Period: PeriodMonth},
	"revenus-activite-annuels":         {Variable: "revenus_activite", Period: PeriodYearRolling},
	"mobili-jeune":                     {Variable: "mobili_jeune", Period: PeriodMonth},
	"aide-mobilite-parcoursup":         {Variable: "aide_mobilite_parcoursup", Period: PeriodMonth},
	"aide-mobilite-master-eligibilite": {Variable: "aide_mobilite_master_eligibilite", Period: PeriodMonth},
	"locapass-eligibilite":             {Variable: "locapass_eligibilite", Period: PeriodMonth},
	"garantie-visale-eligibilite":      {Variable: "visale_eligibilite", Period: PeriodMonth},
})

// HouseholdTable holds the answer keys written on the self household
var HouseholdTable = table(Households, map[string]Mapping{
	"situation-logement":         {Variable: "statut_occupation_logement", Period: PeriodMonth, Dispatch: "situation-logement"},
	"type-logement":              {Variable: "statut_occupation_logement", Period: PeriodMonth, Dispatch: "type-logement", Refines: "situation-logement", Refinable: []any{"locataire_vide"}},
	"code-postal-nouvelle-ville": {Variable: "depcom", Period: PeriodMonth},
	"loyer-montant-mensuel":      {Variable: "loyer", Period: PeriodMonth},
	"colocation":                 {Variable: "coloc", Period: PeriodMonth},
})

// FamilyTable holds the answer keys written on the self family
var FamilyTable = table(Families, map[string]Mapping{
	"nombre-enfants-a-charge":     {Period: PeriodMonth, Relationship: RelationChildren},
	"aide-personnalisee-logement": {Variable: "aide_logement", Period: PeriodMonth},
	"bourse-lycee":                {Variable: "bourse_lycee", Period: PeriodMonth},
})

// TaxHouseholdTable holds the answer keys written on the self tax household
var TaxHouseholdTable = table(TaxHouseholds, map[string]Mapping{
	"revenu-fiscal-reference": {Variable: "rfr", Period: PeriodYear},
	"impot-revenu":            {Variable: "impot_revenu_restant_a_payer", Period: PeriodYear},
})

// Catalog holds one mapping table per entity kind
type Catalog map[EntityKind]Table

// DefaultCatalog is the catalog of the aides simulator surveys
var DefaultCatalog = Catalog{
	Individuals:   IndividualTable,
	Households:    HouseholdTable,
	Families:      FamilyTable,
	TaxHouseholds: TaxHouseholdTable,
}

// Lookup returns every mapping defining key, in entity kind order
func (c Catalog) Lookup(key string) []Mapping {
	var found []Mapping
	for _, kind := range EntityKinds {
		if m, ok := c[kind][key]; ok {
			m.Entity = kind
			found = append(found, m)
		}
	}
	return found
}

// Resolve returns the single mapping defining key. It fails when no table
// or more than one table defines it.
func (c Catalog) Resolve(key string) (Mapping, error) {
	found := c.Lookup(key)
	switch len(found) {
	case 0:
		return Mapping{}, fmt.Errorf("no mapping for %s", key)
	case 1:
		return found[0], nil
	default:
		return Mapping{}, fmt.Errorf("%s is mapped on %d entities", key, len(found))
	}
}
