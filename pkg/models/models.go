package models

// ColumnSchema represents one resolved database column
type ColumnSchema struct {
	Name       string
	DBType     string
	Format     string
	Nullable   bool
	PrimaryKey bool
	ForeignKey bool
	AutoInc    bool
	Default    interface{}
	MinLength  *int
	MaxLength  *int
	Minimum    *float64
	Maximum    *float64
}

// ForeignKey represents a foreign key constraint on a table
type ForeignKey struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// IndexSchema represents an index declared on a table via x-indexes
type IndexSchema struct {
	Type    string
	Unique  bool
	Columns []string
}

// OneToManyRelation marks a has-many relation on the referenced side.
// Not populated by the current resolution pass; see the attribute resolver.
type OneToManyRelation struct {
	RelatedSchemaName string
	ForeignKeyColumn  string
}

// ManyToManyRelation represents one side of a junction-mediated relation.
// PKAttribute and RelatedPKAttribute stay nil until the orchestrator's
// second pass has built every table model.
type ManyToManyRelation struct {
	RelatedSchemaName  string
	RelatedTableName   string
	ViaModelName       string
	ViaTableName       string
	LinkColumn         string
	RelatedLinkColumn  string
	HasViaModel        bool
	PKAttribute        *string
	RelatedPKAttribute *string
}

// TableModel represents the resolved relational model of one schema
type TableModel struct {
	Name        string
	ModelName   string
	PrimaryKey  string
	IsJunction  bool
	Columns     []ColumnSchema
	ForeignKeys []ForeignKey
	Indexes     []IndexSchema
	OneToMany   []OneToManyRelation
	ManyToMany  []ManyToManyRelation
}

// Column returns the column with the given name, or nil
func (tm *TableModel) Column(name string) *ColumnSchema {
	for i := range tm.Columns {
		if tm.Columns[i].Name == name {
			return &tm.Columns[i]
		}
	}
	return nil
}

// PrimaryKeyColumn returns the column backing the table's primary key, or nil
func (tm *TableModel) PrimaryKeyColumn() *ColumnSchema {
	return tm.Column(tm.PrimaryKey)
}
