package migrator

import (
	"fmt"
	"strings"

	"github.com/restkit/schema2db/internal/resolver"
	"github.com/restkit/schema2db/pkg/models"
)

// BuildDDL renders the CREATE TABLE, ALTER TABLE and CREATE INDEX
// statements for a resolved model in dependency order. Tables involved in
// circular references are created without their foreign keys, which are
// added afterwards. Junction tables without a standalone model are
// synthesized from the many-to-many relations.
func BuildDDL(tables map[string]*models.TableModel) []string {
	order, circular := resolver.DependencyOrder(tables)

	var stmts []string
	var deferred []string

	for _, name := range order {
		tm := tables[name]
		stmts = append(stmts, createTableSQL(tm, !circular[name]))
		if circular[name] {
			deferred = append(deferred, foreignKeySQL(tm)...)
		}
		for i, idx := range tm.Indexes {
			stmts = append(stmts, createIndexSQL(tm, idx, i))
		}
	}

	stmts = append(stmts, deferred...)
	stmts = append(stmts, syntheticJunctionSQL(tables, order)...)

	return stmts
}

func createTableSQL(tm *models.TableModel, inlineFKs bool) string {
	var parts []string
	for _, col := range tm.Columns {
		parts = append(parts, columnSQL(col))
	}
	if tm.PrimaryKey != "" {
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (`%s`)", tm.PrimaryKey))
	}
	if inlineFKs {
		for _, fk := range tm.ForeignKeys {
			parts = append(parts, fmt.Sprintf("FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`)",
				fk.Column, fk.ReferencedTable, fk.ReferencedColumn))
		}
	}
	return fmt.Sprintf("CREATE TABLE `%s` (%s)", tm.Name, strings.Join(parts, ", "))
}

func columnSQL(col models.ColumnSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` %s", col.Name, col.DBType)
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.AutoInc {
		b.WriteString(" AUTO_INCREMENT")
	}
	if col.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", defaultLiteral(col.Default))
	}
	return b.String()
}

func defaultLiteral(value interface{}) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func foreignKeySQL(tm *models.TableModel) []string {
	var stmts []string
	for _, fk := range tm.ForeignKeys {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE `%s` ADD FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`)",
			tm.Name, fk.Column, fk.ReferencedTable, fk.ReferencedColumn))
	}
	return stmts
}

func createIndexSQL(tm *models.TableModel, idx models.IndexSchema, n int) string {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	var cols []string
	for _, c := range idx.Columns {
		cols = append(cols, fmt.Sprintf("`%s`", c))
	}
	stmt := fmt.Sprintf("CREATE %s `idx_%s_%d` ON `%s` (%s)",
		kind, tm.Name, n, tm.Name, strings.Join(cols, ", "))
	if idx.Type != "" {
		stmt += fmt.Sprintf(" USING %s", strings.ToUpper(idx.Type))
	}
	return stmt
}

// syntheticJunctionSQL creates the linking tables for many-to-many
// relations whose junction schema produced no standalone model. Each
// junction appears on both sides of the relation, so tables are deduped
// by name.
func syntheticJunctionSQL(tables map[string]*models.TableModel, order []string) []string {
	var stmts []string
	seen := make(map[string]bool)

	for _, name := range order {
		tm := tables[name]
		for _, rel := range tm.ManyToMany {
			if rel.HasViaModel || seen[rel.ViaTableName] {
				continue
			}
			seen[rel.ViaTableName] = true

			ownType := pkColumnType(tm)
			relatedType := "bigint"
			if related, ok := tables[rel.RelatedTableName]; ok {
				relatedType = pkColumnType(related)
			}

			relatedPK := "id"
			if rel.RelatedPKAttribute != nil {
				relatedPK = *rel.RelatedPKAttribute
			}

			stmts = append(stmts, fmt.Sprintf(
				"CREATE TABLE `%s` (`%s` %s NOT NULL, `%s` %s NOT NULL, "+
					"PRIMARY KEY (`%s`, `%s`), "+
					"FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`), "+
					"FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`))",
				rel.ViaTableName,
				rel.LinkColumn, ownType, rel.RelatedLinkColumn, relatedType,
				rel.LinkColumn, rel.RelatedLinkColumn,
				rel.LinkColumn, tm.Name, tm.PrimaryKey,
				rel.RelatedLinkColumn, rel.RelatedTableName, relatedPK))
		}
	}

	return stmts
}

func pkColumnType(tm *models.TableModel) string {
	if col := tm.PrimaryKeyColumn(); col != nil {
		return col.DBType
	}
	return "bigint"
}
