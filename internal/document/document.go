package document

// Document is the capability surface the resolver needs from a parsed
// schema specification. Implementations must be read-only during
// resolution; the resolver never mutates the document.
type Document interface {
	// SchemaNames returns every schema name in declaration order
	SchemaNames() []string
	// Schema returns the named component schema
	Schema(name string) (*ComponentSchema, bool)
}

// SchemaMap is the Document implementation produced by the loader. It
// preserves declaration order, which the resolver turns into column and
// table order.
type SchemaMap struct {
	names   []string
	schemas map[string]*ComponentSchema
}

// NewSchemaMap creates an empty schema map
func NewSchemaMap() *SchemaMap {
	return &SchemaMap{
		schemas: make(map[string]*ComponentSchema),
	}
}

// Add inserts a component schema, keeping declaration order
func (m *SchemaMap) Add(cs *ComponentSchema) {
	if _, exists := m.schemas[cs.Name]; !exists {
		m.names = append(m.names, cs.Name)
	}
	m.schemas[cs.Name] = cs
}

// SchemaNames returns every schema name in declaration order
func (m *SchemaMap) SchemaNames() []string {
	return m.names
}

// Schema returns the named component schema
func (m *SchemaMap) Schema(name string) (*ComponentSchema, bool) {
	cs, ok := m.schemas[name]
	return cs, ok
}
