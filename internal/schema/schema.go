// Package schema normalizes extracted PDF tables into a single record set with
// a canonical header and a fixed column allow-list.
package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default column names as printed in the source directory.
const (
	ColID         = "ID"
	ColSpecialty  = "Fachgebiet"
	ColOfferings  = "Schwerpunkte / Angebote / Bemerkungen"
	ColFirstName  = "Vorname"
	ColLastName   = "Name"
	ColStreet     = "Straße"
	ColPostalCode = "PLZ"
	ColCity       = "Ort"
	ColRemark     = "Bemerkung"

	DefaultCountry = "Deutschland"
)

// Schema describes which columns survive normalization and which of them make
// up a postal address.
type Schema struct {
	Columns []string       `yaml:"columns"`
	Address AddressColumns `yaml:"address"`
}

// AddressColumns maps address parts, and the record identifier, to column
// names.
type AddressColumns struct {
	ID         string `yaml:"id"`
	Street     string `yaml:"street"`
	PostalCode string `yaml:"postal_code"`
	City       string `yaml:"city"`
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Country    string `yaml:"country"`
}

// Default returns the schema of the Berlin doctors directory.
func Default() *Schema {
	return &Schema{
		Columns: []string{
			ColID,
			ColSpecialty,
			ColOfferings,
			ColFirstName,
			ColLastName,
			ColStreet,
			ColPostalCode,
			ColCity,
			ColRemark,
		},
		Address: AddressColumns{
			ID:         ColID,
			Street:     ColStreet,
			PostalCode: ColPostalCode,
			City:       ColCity,
			FirstName:  ColFirstName,
			LastName:   ColLastName,
			Country:    DefaultCountry,
		},
	}
}

// Load reads a schema YAML file. An empty path returns Default. Fields missing
// from the file keep their default values.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}

	// The YAML has a top-level "schema" key
	var wrapper struct {
		Schema Schema `yaml:"schema"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "schema: parse")
	}

	s := Default()
	if len(wrapper.Schema.Columns) > 0 {
		s.Columns = wrapper.Schema.Columns
	}
	a := wrapper.Schema.Address
	if a.ID != "" {
		s.Address.ID = a.ID
	}
	if a.Street != "" {
		s.Address.Street = a.Street
	}
	if a.PostalCode != "" {
		s.Address.PostalCode = a.PostalCode
	}
	if a.City != "" {
		s.Address.City = a.City
	}
	if a.FirstName != "" {
		s.Address.FirstName = a.FirstName
	}
	if a.LastName != "" {
		s.Address.LastName = a.LastName
	}
	if a.Country != "" {
		s.Address.Country = a.Country
	}

	return s, nil
}

// RequiredAddressColumns returns the columns an address cannot be built without.
func (s *Schema) RequiredAddressColumns() []string {
	return []string{s.Address.Street, s.Address.PostalCode, s.Address.City}
}
