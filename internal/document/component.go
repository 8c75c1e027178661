package document

// DefaultPrimaryKey is the primary key name used when a schema carries
// no x-pk annotation
const DefaultPrimaryKey = "id"

// ComponentSchema wraps one named schema definition: its ordered
// properties, required set, classification flags, and custom annotations
type ComponentSchema struct {
	Name        string
	Properties  []*PropertySchema
	Required    []string
	IsObject    bool
	IsComposite bool
	TableName   string
	PKName      string
	IndexSpecs  []string
}

// IsObjectSchema reports whether the schema is object-typed with at least
// one declared property
func (cs *ComponentSchema) IsObjectSchema() bool {
	return cs.IsObject && len(cs.Properties) > 0
}

// IsNonDB reports whether the schema is a plain data-transfer shape that
// cannot back a database table
func (cs *ComponentSchema) IsNonDB() bool {
	return !cs.IsObjectSchema() || cs.IsComposite
}

// IsRequired reports whether the named property is in the required set
func (cs *ComponentSchema) IsRequired(name string) bool {
	for _, r := range cs.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Property returns the property with the given name, or nil
func (cs *ComponentSchema) Property(name string) *PropertySchema {
	for _, p := range cs.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PrimaryKeyName returns the schema's primary key name, defaulting to "id"
func (cs *ComponentSchema) PrimaryKeyName() string {
	if cs.PKName == "" {
		return DefaultPrimaryKey
	}
	return cs.PKName
}

// PrimaryKeyProperty returns the declared property backing the primary
// key, or nil when the key column is synthesized. The key name and the
// property name are compared in their database form, so an x-pk
// annotation may use either spelling of a camelCase property.
func (cs *ComponentSchema) PrimaryKeyProperty() *PropertySchema {
	pk := ToSnakeCase(cs.PrimaryKeyName())
	for _, p := range cs.Properties {
		if ToSnakeCase(p.Name) == pk {
			return p
		}
	}
	return nil
}
