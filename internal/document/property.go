package document

import "strings"

// PropertyType is the declared type of a schema property
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeArray   PropertyType = "array"
	TypeObject  PropertyType = "object"
)

// PropertySchema wraps one property of a component schema: its declared
// type, constraints, and reference information. Exactly one of scalar,
// single-reference, or array-of-references holds for a property.
type PropertySchema struct {
	Name      string
	Type      PropertyType
	Format    string
	Ref       string
	ItemsRef  string
	DBType    string
	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64
	Default   interface{}
}

// IsReference reports whether the property points to exactly one other schema
func (p *PropertySchema) IsReference() bool {
	return p.Ref != ""
}

// IsArrayOfReferences reports whether the property points to a collection
// of another schema
func (p *PropertySchema) IsArrayOfReferences() bool {
	return p.ItemsRef != ""
}

// IsScalar reports whether the property is a plain value column
func (p *PropertySchema) IsScalar() bool {
	return !p.IsReference() && !p.IsArrayOfReferences()
}

// ReferencedSchemaName returns the name of the schema this property points
// to, for both single references and arrays of references
func (p *PropertySchema) ReferencedSchemaName() string {
	if p.Ref != "" {
		return p.Ref
	}
	return p.ItemsRef
}

// FKColumnName returns the physical column name a single-reference property
// resolves to. A property already carrying the _id suffix keeps its name.
func (p *PropertySchema) FKColumnName() string {
	name := ToSnakeCase(p.Name)
	if strings.HasSuffix(name, "_id") {
		return name
	}
	return name + "_id"
}

// ToSnakeCase converts a schema or property name to its database form
func ToSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && name[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
