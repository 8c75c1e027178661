package resolver

import (
	"sort"

	"github.com/yourbasic/graph"

	"github.com/restkit/schema2db/pkg/models"
)

// DependencyOrder computes the order in which tables can be created so
// that every referenced table exists before its referencing table.
// Junction tables are moved to the end. The second return value marks
// tables involved in circular references; their foreign keys have to be
// added after all tables exist.
func DependencyOrder(tables map[string]*models.TableModel) ([]string, map[string]bool) {
	// Sort names up front so the result is reproducible across runs
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	indexByName := make(map[string]int, len(names))
	for i, name := range names {
		indexByName[name] = i
	}

	// Build the reference graph: an edge from a table to each table it
	// references through a foreign key
	g := graph.New(len(names))
	for _, name := range names {
		for _, fk := range tables[name].ForeignKeys {
			if fk.ReferencedTable == name {
				continue // self-references never block creation order
			}
			if dest, ok := indexByName[fk.ReferencedTable]; ok {
				g.Add(indexByName[name], dest)
			}
		}
	}

	// Tables sharing a strongly connected component reference each other
	// cyclically
	circular := make(map[string]bool)
	for _, component := range graph.StrongComponents(g) {
		if len(component) > 1 {
			for _, idx := range component {
				circular[names[idx]] = true
			}
		}
	}

	// Topological sort over the non-circular tables: start with tables
	// whose references are all satisfied, repeat until done
	var ordered []string
	added := make(map[string]bool)
	remaining := make([]string, 0, len(names))
	for _, name := range names {
		if circular[name] {
			continue
		}
		remaining = append(remaining, name)
	}

	for len(remaining) > 0 {
		progressed := false
		var next []string
		for _, name := range remaining {
			if referencesResolved(tables[name], tables, added, circular, name) {
				ordered = append(ordered, name)
				added[name] = true
				progressed = true
			} else {
				next = append(next, name)
			}
		}
		remaining = next

		// A stuck iteration means a reference points outside the table
		// set; emit the leftovers in name order rather than looping
		if !progressed {
			ordered = append(ordered, remaining...)
			break
		}
	}

	// Circular tables come after everything they might reference
	var circularList []string
	for name := range circular {
		circularList = append(circularList, name)
	}
	sort.Strings(circularList)
	ordered = append(ordered, circularList...)

	// Junction tables go last: both of their sides must already exist
	var final, junctionTables []string
	for _, name := range ordered {
		if tables[name].IsJunction {
			junctionTables = append(junctionTables, name)
		} else {
			final = append(final, name)
		}
	}
	final = append(final, junctionTables...)

	return final, circular
}

func referencesResolved(tm *models.TableModel, tables map[string]*models.TableModel, added, circular map[string]bool, self string) bool {
	for _, fk := range tm.ForeignKeys {
		if fk.ReferencedTable == self || circular[fk.ReferencedTable] {
			continue
		}
		if _, known := tables[fk.ReferencedTable]; !known {
			continue
		}
		if !added[fk.ReferencedTable] {
			return false
		}
	}
	return true
}
