package resolver

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/document"
	"github.com/restkit/schema2db/pkg/models"
)

// ResolveTable turns one eligible schema into its relational table model.
// Property order is preserved in column order. Many-to-many primary key
// attributes stay unset here; the orchestrator's second pass fills them
// once every table model exists.
func ResolveTable(name string, cs *document.ComponentSchema, doc document.Document, junctions *JunctionSet, logger *logrus.Logger) *models.TableModel {
	modelName := TrimPrefix(name)
	tableName := cs.TableName
	if tableName == "" {
		tableName = document.ToSnakeCase(modelName)
	}

	// The key is carried under its physical column name so that column
	// flagging and DDL rendering agree regardless of the x-pk spelling
	tm := &models.TableModel{
		Name:       tableName,
		ModelName:  modelName,
		PrimaryKey: document.ToSnakeCase(cs.PrimaryKeyName()),
		IsJunction: junctions.IsJunctionSchema(name),
	}

	// Synthesize the primary key column when no declared property backs it
	if cs.PrimaryKeyProperty() == nil {
		tm.Columns = append(tm.Columns, models.ColumnSchema{
			Name:       tm.PrimaryKey,
			DBType:     "bigint",
			PrimaryKey: true,
			AutoInc:    true,
		})
	}

	for _, prop := range cs.Properties {
		switch {
		case prop.IsScalar():
			resolveScalar(tm, cs, prop)
		case prop.IsReference():
			resolveReference(tm, name, cs, prop, doc, logger)
		case prop.IsArrayOfReferences():
			resolveArrayReference(tm, name, prop, junctions, logger)
		}
	}

	resolveIndexes(tm, cs, logger)

	return tm
}

func resolveScalar(tm *models.TableModel, cs *document.ComponentSchema, prop *document.PropertySchema) {
	col := models.ColumnSchema{
		Name:      document.ToSnakeCase(prop.Name),
		DBType:    dbTypeFor(prop),
		Format:    prop.Format,
		Nullable:  !cs.IsRequired(prop.Name),
		Default:   prop.Default,
		MinLength: prop.MinLength,
		MaxLength: prop.MaxLength,
		Minimum:   prop.Minimum,
		Maximum:   prop.Maximum,
	}
	if col.Name == tm.PrimaryKey {
		col.PrimaryKey = true
		col.Nullable = false
	}
	tm.Columns = append(tm.Columns, col)
}

// resolveReference emits a foreign key column typed to match the
// referenced schema's primary key. Annotating the referenced side with the
// inverse has-many relation is not done in this pass.
// TODO: annotate referenced table models with inverse has-many relations.
func resolveReference(tm *models.TableModel, schemaName string, cs *document.ComponentSchema, prop *document.PropertySchema, doc document.Document, logger *logrus.Logger) {
	target, ok := doc.Schema(prop.Ref)
	if !ok {
		logger.Debugf("Schema %s: property %s references unknown schema %s, skipping", schemaName, prop.Name, prop.Ref)
		return
	}
	if target.IsNonDB() {
		logger.Debugf("Schema %s: property %s references non-database schema %s, skipping", schemaName, prop.Name, prop.Ref)
		return
	}

	_, dbType := referencedPKTypes(target)
	tm.Columns = append(tm.Columns, models.ColumnSchema{
		Name:       prop.FKColumnName(),
		DBType:     dbType,
		Nullable:   !cs.IsRequired(prop.Name),
		ForeignKey: true,
	})
	tm.ForeignKeys = append(tm.ForeignKeys, models.ForeignKey{
		Column:           prop.FKColumnName(),
		ReferencedTable:  tableNameFor(prop.Ref, doc),
		ReferencedColumn: document.ToSnakeCase(target.PrimaryKeyName()),
	})
}

// resolveArrayReference emits a many-to-many relation stub when the
// property participates in a recorded junction pair. Plain has-many
// references produce nothing here; inverse relation generation is
// deferred.
func resolveArrayReference(tm *models.TableModel, schemaName string, prop *document.PropertySchema, junctions *JunctionSet, logger *logrus.Logger) {
	d, ok := junctions.Match(schemaName, prop.Name)
	if !ok {
		logger.Debugf("Schema %s: array reference %s is not part of a junction pair, skipping", schemaName, prop.Name)
		return
	}
	tm.ManyToMany = append(tm.ManyToMany, models.ManyToManyRelation{
		RelatedSchemaName: d.TargetClassName,
		RelatedTableName:  d.RelatedTableName,
		ViaModelName:      TrimPrefix(d.JunctionSchemaName),
		ViaTableName:      d.JunctionTableName,
		LinkColumn:        d.ForeignPKColumnName,
		RelatedLinkColumn: d.RelatedFKColumnName,
	})
}

// resolveIndexes translates x-indexes specs into index descriptors. A
// spec is a comma-separated column list, optionally prefixed with
// "unique:" or an index type tag. Property names backing foreign keys
// resolve to their physical column names.
func resolveIndexes(tm *models.TableModel, cs *document.ComponentSchema, logger *logrus.Logger) {
	for _, spec := range cs.IndexSpecs {
		idx := models.IndexSchema{}

		columns := spec
		if tag, rest, found := strings.Cut(spec, ":"); found {
			if tag == "unique" {
				idx.Unique = true
			} else {
				idx.Type = tag
			}
			columns = rest
		}

		for _, part := range strings.Split(columns, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if prop := cs.Property(part); prop != nil && prop.IsReference() {
				part = prop.FKColumnName()
			} else {
				part = document.ToSnakeCase(part)
			}
			idx.Columns = append(idx.Columns, part)
		}

		if len(idx.Columns) == 0 {
			logger.Warningf("Schema %s: index spec %q names no columns, skipping", cs.Name, spec)
			continue
		}
		tm.Indexes = append(tm.Indexes, idx)
	}
}

// dbTypeFor maps a property's declared type and format to a MySQL column
// type. An x-db-type annotation overrides the inference.
func dbTypeFor(p *document.PropertySchema) string {
	if p.DBType != "" {
		return p.DBType
	}
	switch p.Type {
	case document.TypeInteger:
		if p.Format == "int64" {
			return "bigint"
		}
		return "int"
	case document.TypeNumber:
		if p.Format == "float" {
			return "float"
		}
		return "double"
	case document.TypeBoolean:
		return "tinyint(1)"
	case document.TypeString:
		switch p.Format {
		case "date":
			return "date"
		case "date-time":
			return "datetime"
		case "uuid":
			return "char(36)"
		case "binary":
			return "blob"
		}
		if p.MaxLength != nil {
			if *p.MaxLength > 2000 {
				return "text"
			}
			return fmt.Sprintf("varchar(%d)", *p.MaxLength)
		}
		return "varchar(255)"
	case document.TypeObject, document.TypeArray:
		return "json"
	}
	return "varchar(255)"
}

// attrTypeFor maps a property's declared type to the scalar type carried
// on junction descriptors
func attrTypeFor(p *document.PropertySchema) string {
	switch p.Type {
	case document.TypeInteger:
		return "int64"
	case document.TypeNumber:
		return "float64"
	case document.TypeBoolean:
		return "bool"
	default:
		return "string"
	}
}

// referencedPKTypes resolves the scalar and column types of a schema's
// primary key without requiring its table model to exist yet. A schema
// with no declared key property gets a synthesized bigint key.
func referencedPKTypes(target *document.ComponentSchema) (attrType, dbType string) {
	if pk := target.PrimaryKeyProperty(); pk != nil {
		return attrTypeFor(pk), dbTypeFor(pk)
	}
	return "int64", "bigint"
}
