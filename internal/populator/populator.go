package populator

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/connector"
	"github.com/restkit/schema2db/internal/generator"
	"github.com/restkit/schema2db/internal/resolver"
	"github.com/restkit/schema2db/pkg/models"
)

// DatabasePopulator fills the tables of a freshly migrated model with
// fake data, in an order that satisfies foreign key constraints
type DatabasePopulator struct {
	DB            *connector.DatabaseConnector
	DataGenerator *generator.DataGenerator
	NumRecords    int
	FailedTables  map[string]bool
	Logger        *logrus.Logger

	insertedIDs map[string][]int64
}

// NewDatabasePopulator creates a new database populator
func NewDatabasePopulator(db *connector.DatabaseConnector, dataGenerator *generator.DataGenerator, numRecords int, logger *logrus.Logger) *DatabasePopulator {
	return &DatabasePopulator{
		DB:            db,
		DataGenerator: dataGenerator,
		NumRecords:    numRecords,
		FailedTables:  make(map[string]bool),
		Logger:        logger,
		insertedIDs:   make(map[string][]int64),
	}
}

// Populate inserts fake records into every table of the resolved model,
// referenced tables first, linking tables last
func (dp *DatabasePopulator) Populate(tables map[string]*models.TableModel) bool {
	order, _ := resolver.DependencyOrder(tables)

	success := true
	for _, name := range order {
		if !dp.populateTable(tables[name]) {
			dp.FailedTables[name] = true
			success = false
		}
	}

	if !dp.populateSyntheticJunctions(tables, order) {
		success = false
	}

	return success
}

func (dp *DatabasePopulator) populateTable(tm *models.TableModel) bool {
	var columns []string
	for _, col := range tm.Columns {
		if col.AutoInc {
			continue
		}
		columns = append(columns, col.Name)
	}
	if len(columns) == 0 {
		dp.Logger.Debugf("Table %s has only generated columns, skipping", tm.Name)
		return true
	}

	var paramsList [][]interface{}
	for i := 0; i < dp.NumRecords; i++ {
		row, err := dp.DataGenerator.Row(tm, dp.insertedIDs)
		if err != nil {
			dp.Logger.Errorf("Failed to generate data for table %s: %v", tm.Name, err)
			return false
		}
		params := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			params = append(params, row[col])
		}
		paramsList = append(paramsList, params)
	}

	if _, err := dp.DB.ExecuteMany(insertSQL(tm.Name, columns), paramsList); err != nil {
		dp.Logger.Errorf("Failed to populate table %s: %v", tm.Name, err)
		return false
	}

	// The database assigns auto-increment keys, so read back what is
	// actually in the table instead of guessing; the table may not have
	// been empty before the batch
	if pk := tm.PrimaryKeyColumn(); pk != nil && pk.AutoInc {
		ids, err := dp.fetchIDs(tm, pk)
		if err != nil {
			dp.Logger.Errorf("Failed to read back ids for table %s: %v", tm.Name, err)
			return false
		}
		dp.insertedIDs[tm.Name] = ids
	}

	dp.Logger.Infof("Inserted %d records into %s", dp.NumRecords, tm.Name)
	return true
}

// fetchIDs reads the key values currently present in a table. The MySQL
// driver may deliver integer columns as raw bytes.
func (dp *DatabasePopulator) fetchIDs(tm *models.TableModel, pk *models.ColumnSchema) ([]int64, error) {
	rows, err := dp.DB.ExecuteQuery(fmt.Sprintf("SELECT `%s` FROM `%s`", pk.Name, tm.Name))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		switch v := row[pk.Name].(type) {
		case int64:
			ids = append(ids, v)
		case []byte:
			id, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("table %s: non-numeric key value %q", tm.Name, v)
			}
			ids = append(ids, id)
		default:
			return nil, fmt.Errorf("table %s: unexpected key value %v", tm.Name, row[pk.Name])
		}
	}
	return ids, nil
}

// populateSyntheticJunctions links rows of both sides of every
// many-to-many relation whose junction table has no standalone model
func (dp *DatabasePopulator) populateSyntheticJunctions(tables map[string]*models.TableModel, order []string) bool {
	seen := make(map[string]bool)
	success := true

	for _, name := range order {
		tm := tables[name]
		for _, rel := range tm.ManyToMany {
			if rel.HasViaModel || seen[rel.ViaTableName] {
				continue
			}
			seen[rel.ViaTableName] = true

			ownIDs := dp.insertedIDs[tm.Name]
			relatedIDs := dp.insertedIDs[rel.RelatedTableName]
			if len(ownIDs) == 0 || len(relatedIDs) == 0 {
				dp.Logger.Warningf("Skipping junction table %s: missing rows on one side", rel.ViaTableName)
				continue
			}

			pairs := uniquePairs(ownIDs, relatedIDs, dp.NumRecords)
			query := insertSQL(rel.ViaTableName, []string{rel.LinkColumn, rel.RelatedLinkColumn})
			if _, err := dp.DB.ExecuteMany(query, pairs); err != nil {
				dp.Logger.Errorf("Failed to populate junction table %s: %v", rel.ViaTableName, err)
				dp.FailedTables[rel.ViaTableName] = true
				success = false
				continue
			}
			dp.Logger.Infof("Inserted %d records into %s", len(pairs), rel.ViaTableName)
		}
	}

	return success
}

// uniquePairs draws up to n distinct (left, right) id pairs, respecting
// the junction table's composite primary key
func uniquePairs(left, right []int64, n int) [][]interface{} {
	type pair struct{ l, r int64 }
	seen := make(map[pair]bool)
	var out [][]interface{}

	for attempts := 0; len(out) < n && attempts < n*10; attempts++ {
		p := pair{left[rand.Intn(len(left))], right[rand.Intn(len(right))]}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, []interface{}{p.l, p.r})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i][0].(int64) != out[j][0].(int64) {
			return out[i][0].(int64) < out[j][0].(int64)
		}
		return out[i][1].(int64) < out[j][1].(int64)
	})
	return out
}

func insertSQL(table string, columns []string) string {
	quoted := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for _, col := range columns {
		quoted = append(quoted, fmt.Sprintf("`%s`", col))
		placeholders = append(placeholders, "?")
	}
	return fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}
