package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// catalogDoc is the YAML wire form of a catalog. Struct-tag validation
// rejects obviously malformed documents before the structural checks in
// Catalog.Validate run.
type catalogDoc struct {
	Name       string         `yaml:"name" validate:"required"`
	Functions  []functionDoc  `yaml:"functions" validate:"required,min=1,dive"`
	Components []componentDoc `yaml:"components" validate:"required,min=1,dive"`
	Rules      []ruleDoc      `yaml:"rules" validate:"dive"`
}

type functionDoc struct {
	ID         string   `yaml:"id" validate:"required"`
	Required   bool     `yaml:"required"`
	Candidates []string `yaml:"candidates" validate:"required,min=1"`
}

type componentDoc struct {
	ID         string         `yaml:"id" validate:"required"`
	Fulfills   string         `yaml:"fulfills" validate:"required"`
	Ports      []portDoc      `yaml:"ports" validate:"dive"`
	Attributes []attributeDoc `yaml:"attributes" validate:"dive"`
}

type portDoc struct {
	Name        string `yaml:"name" validate:"required"`
	Direction   string `yaml:"direction" validate:"required,oneof=in out"`
	Flow        string `yaml:"flow" validate:"required,oneof=air mech bleed"`
	Cardinality string `yaml:"cardinality" validate:"omitempty,oneof=exactly-one zero-or-one many"`
	MaxConns    int    `yaml:"max_connections" validate:"omitempty,min=1"`
}

type attributeDoc struct {
	Name    string    `yaml:"name" validate:"required"`
	Kind    string    `yaml:"kind" validate:"required,oneof=continuous integer categorical"`
	Min     float64   `yaml:"min"`
	Max     float64   `yaml:"max"`
	Levels  []float64 `yaml:"levels"`
	Options []string  `yaml:"options"`
}

type ruleDoc struct {
	From string   `yaml:"from" validate:"required"`
	To   []string `yaml:"to" validate:"required,min=1"`
}

// Load reads a YAML catalog description and returns a validated Catalog.
func Load(r io.Reader) (*Catalog, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaError{Detail: fmt.Sprintf("parse catalog: %v", err)}
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, &SchemaError{Detail: fmt.Sprintf("catalog document: %v", err)}
	}

	cat := &Catalog{Name: doc.Name}
	for _, f := range doc.Functions {
		cat.Functions = append(cat.Functions, Function{
			ID:         f.ID,
			Required:   f.Required,
			Candidates: f.Candidates,
		})
	}
	for _, cd := range doc.Components {
		comp := Component{ID: cd.ID, Fulfills: cd.Fulfills}
		for _, p := range cd.Ports {
			port := Port{
				Name:           p.Name,
				Flow:           FlowType(p.Flow),
				MaxConnections: p.MaxConns,
			}
			if p.Direction == "out" {
				port.Direction = Out
			}
			switch p.Cardinality {
			case "", "exactly-one":
				port.Cardinality = ExactlyOne
			case "zero-or-one":
				port.Cardinality = ZeroOrOne
			case "many":
				port.Cardinality = Many
			}
			comp.Ports = append(comp.Ports, port)
		}
		for _, a := range cd.Attributes {
			attr := Attribute{Name: a.Name}
			switch a.Kind {
			case "continuous":
				attr.Domain = Domain{Kind: Continuous, Min: a.Min, Max: a.Max}
			case "integer":
				attr.Domain = Domain{Kind: Integer, Levels: a.Levels}
			case "categorical":
				attr.Domain = Domain{Kind: Categorical, Options: a.Options}
			}
			comp.Attributes = append(comp.Attributes, attr)
		}
		cat.Components = append(cat.Components, comp)
	}
	for i, r := range doc.Rules {
		from, err := parsePortRef(r.From)
		if err != nil {
			return nil, schemaErrorf(r.From, "rule %d: %v", i, err)
		}
		rule := Rule{From: from}
		for _, t := range r.To {
			to, err := parsePortRef(t)
			if err != nil {
				return nil, schemaErrorf(t, "rule %d: %v", i, err)
			}
			rule.To = append(rule.To, to)
		}
		cat.Rules = append(cat.Rules, rule)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parsePortRef(s string) (PortRef, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return PortRef{Component: s[:i], Port: s[i+1:]}, nil
		}
	}
	return PortRef{}, fmt.Errorf("port reference %q is not of the form component.port", s)
}
