package populator

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/connector"
	"github.com/restkit/schema2db/internal/generator"
	"github.com/restkit/schema2db/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestPopulator(t *testing.T, numRecords int) (*DatabasePopulator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dc := &connector.DatabaseConnector{DB: db, Logger: testLogger()}
	dg := generator.NewDataGenerator(testLogger())
	return NewDatabasePopulator(dc, dg, numRecords, testLogger()), mock
}

func accountDomainModel() map[string]*models.TableModel {
	return map[string]*models.TableModel{
		"domain": {
			Name:       "domain",
			ModelName:  "Domain",
			PrimaryKey: "id",
			Columns: []models.ColumnSchema{
				{Name: "id", DBType: "bigint", PrimaryKey: true, AutoInc: true},
				{Name: "name", DBType: "varchar(255)"},
			},
		},
		"account": {
			Name:       "account",
			ModelName:  "Account",
			PrimaryKey: "id",
			Columns: []models.ColumnSchema{
				{Name: "id", DBType: "bigint", PrimaryKey: true, AutoInc: true},
				{Name: "status", DBType: "varchar(255)"},
				{Name: "domain_id", DBType: "bigint", ForeignKey: true},
			},
			ForeignKeys: []models.ForeignKey{
				{Column: "domain_id", ReferencedTable: "domain", ReferencedColumn: "id"},
			},
		},
	}
}

func expectBatchInsert(mock sqlmock.Sqlmock, pattern string, rows int) {
	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(pattern)
	for i := 0; i < rows; i++ {
		prepared.ExpectExec().WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()
}

// expectIDReadBack serves the key read-back that follows a batch insert
// into a table with an auto-increment key
func expectIDReadBack(mock sqlmock.Sqlmock, table string, ids ...int64) {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	mock.ExpectQuery("SELECT `id` FROM `" + table + "`").WillReturnRows(rows)
}

func TestPopulateInsertsInDependencyOrder(t *testing.T) {
	dp, mock := newTestPopulator(t, 3)

	// The domain table was not empty, so the assigned keys do not start
	// at 1; the populator must use what the database reports
	expectBatchInsert(mock, "INSERT INTO `domain`", 3)
	expectIDReadBack(mock, "domain", 4, 5, 6)
	expectBatchInsert(mock, "INSERT INTO `account`", 3)
	expectIDReadBack(mock, "account", 1, 2, 3)

	if !dp.Populate(accountDomainModel()) {
		t.Fatalf("Populate failed, failed tables: %v", dp.FailedTables)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}

	ids := dp.insertedIDs["domain"]
	if len(ids) != 3 || ids[0] != 4 || ids[2] != 6 {
		t.Errorf("Expected database-assigned ids 4..6 for domain, got %v", ids)
	}
}

func TestPopulateRecordsFailedTables(t *testing.T) {
	dp, mock := newTestPopulator(t, 2)

	expectBatchInsert(mock, "INSERT INTO `domain`", 2)
	expectIDReadBack(mock, "domain", 1, 2)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO `account`").
		ExpectExec().
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	if dp.Populate(accountDomainModel()) {
		t.Error("Expected Populate to report failure")
	}
	if !dp.FailedTables["account"] {
		t.Errorf("Expected account in failed tables, got %v", dp.FailedTables)
	}
	if dp.FailedTables["domain"] {
		t.Error("Expected domain to succeed")
	}
}

func TestPopulateFillsSyntheticJunctions(t *testing.T) {
	dp, mock := newTestPopulator(t, 2)

	tables := map[string]*models.TableModel{
		"post": {
			Name: "post", ModelName: "Post", PrimaryKey: "id",
			Columns: []models.ColumnSchema{
				{Name: "id", DBType: "bigint", PrimaryKey: true, AutoInc: true},
				{Name: "title", DBType: "varchar(255)"},
			},
			ManyToMany: []models.ManyToManyRelation{{
				RelatedSchemaName: "Tag",
				RelatedTableName:  "tag",
				ViaTableName:      "post_tag",
				LinkColumn:        "post_id",
				RelatedLinkColumn: "tag_id",
			}},
		},
		"tag": {
			Name: "tag", ModelName: "Tag", PrimaryKey: "id",
			Columns: []models.ColumnSchema{
				{Name: "id", DBType: "bigint", PrimaryKey: true, AutoInc: true},
				{Name: "label", DBType: "varchar(255)"},
			},
			ManyToMany: []models.ManyToManyRelation{{
				RelatedSchemaName: "Post",
				RelatedTableName:  "post",
				ViaTableName:      "post_tag",
				LinkColumn:        "tag_id",
				RelatedLinkColumn: "post_id",
			}},
		},
	}

	expectBatchInsert(mock, "INSERT INTO `post`", 2)
	expectIDReadBack(mock, "post", 1, 2)
	expectBatchInsert(mock, "INSERT INTO `tag`", 2)
	expectIDReadBack(mock, "tag", 1, 2)
	expectBatchInsert(mock, "INSERT INTO `post_tag`", 2)

	if !dp.Populate(tables) {
		t.Fatalf("Populate failed, failed tables: %v", dp.FailedTables)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPopulateFailsRequiredReferenceWithoutIDs(t *testing.T) {
	dp, mock := newTestPopulator(t, 2)

	// The referenced table has a declared key, so no ids are tracked for
	// it and the dependent table's required reference cannot be satisfied
	tables := map[string]*models.TableModel{
		"domain": {
			Name:       "domain",
			ModelName:  "Domain",
			PrimaryKey: "code",
			Columns: []models.ColumnSchema{
				{Name: "code", DBType: "char(36)", PrimaryKey: true},
			},
		},
		"account": {
			Name:       "account",
			ModelName:  "Account",
			PrimaryKey: "id",
			Columns: []models.ColumnSchema{
				{Name: "id", DBType: "bigint", PrimaryKey: true, AutoInc: true},
				{Name: "domain_id", DBType: "char(36)", ForeignKey: true},
			},
			ForeignKeys: []models.ForeignKey{
				{Column: "domain_id", ReferencedTable: "domain", ReferencedColumn: "code"},
			},
		},
	}

	expectBatchInsert(mock, "INSERT INTO `domain`", 2)

	if dp.Populate(tables) {
		t.Error("Expected Populate to report failure")
	}
	if !dp.FailedTables["account"] {
		t.Errorf("Expected account in failed tables, got %v", dp.FailedTables)
	}
}

func TestUniquePairs(t *testing.T) {
	left := []int64{1, 2, 3}
	right := []int64{1, 2, 3}

	pairs := uniquePairs(left, right, 5)
	if len(pairs) != 5 {
		t.Fatalf("Expected 5 pairs, got %d", len(pairs))
	}

	seen := make(map[[2]int64]bool)
	for _, p := range pairs {
		key := [2]int64{p[0].(int64), p[1].(int64)}
		if seen[key] {
			t.Errorf("Duplicate pair %v", key)
		}
		seen[key] = true
	}
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL("account", []string{"status", "domain_id"})
	want := "INSERT INTO `account` (`status`, `domain_id`) VALUES (?, ?)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
