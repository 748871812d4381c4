package catalog

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Direction is a service direction of the streetcar line. Each
// direction has its own ordered stop sequence.
type Direction string

const (
	Northbound Direction = "northbound"
	Southbound Direction = "southbound"
)

// DefaultDirection is the direction selected before any user input.
const DefaultDirection = Northbound

// ParseDirection maps a wire value to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Northbound:
		return Northbound, nil
	case Southbound:
		return Southbound, nil
	default:
		return "", fmt.Errorf("unknown route direction %q", s)
	}
}

// Catalog is an immutable mapping from direction to an ordered
// sequence of stop display names. Built once at startup; never
// mutated afterwards.
type Catalog struct {
	northbound []string
	southbound []string
}

// catalogFile is the YAML shape of an external stop catalog.
type catalogFile struct {
	Northbound []string `yaml:"northbound" validate:"required,min=2,unique,dive,required"`
	Southbound []string `yaml:"southbound" validate:"required,min=2,unique,dive,required"`
}

// Default returns the built-in catalog for the Tempe streetcar line.
func Default() *Catalog {
	return &Catalog{
		northbound: []string{
			"Dorsey Ln/Apache Blvd", "Rural Rd/Apache Blvd", "Paseo Del Saber/Apache Blvd",
			"College Ave/Apache Blvd", "Eleventh St/Mill", "Ninth St/Mill",
			"Sixth St/Mill", "Third St/Mill", "Hayden Ferry", "Marina Heights",
		},
		southbound: []string{
			"Marina Heights", "Hayden Ferry", "Tempe Beach Park", "3rd St/Ash Ave",
			"5th St/Ash Ave", "University Dr/Ash Ave", "Ninth St/Mill",
			"Eleventh St/Mill", "College Ave/Apache Blvd", "Paseo Del Saber/Apache Blvd",
			"Rural Rd/Apache Blvd", "Dorsey Ln/Apache Blvd",
		},
	}
}

// LoadFile reads and validates a YAML stop catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	v := validator.New()
	if err := v.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &Catalog{northbound: f.Northbound, southbound: f.Southbound}, nil
}

// Stops returns a copy of the ordered stop sequence for the direction.
func (c *Catalog) Stops(dir Direction) []string {
	var src []string
	switch dir {
	case Southbound:
		src = c.southbound
	default:
		src = c.northbound
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Contains reports whether the named stop is on the direction's sequence.
func (c *Catalog) Contains(dir Direction, name string) bool {
	for _, s := range c.Stops(dir) {
		if s == name {
			return true
		}
	}
	return false
}
