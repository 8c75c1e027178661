package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/pkg/models"
)

// DataGenerator generates fake values for resolved columns, driven by the
// column's format, name and database type
type DataGenerator struct {
	Faker  faker.Faker
	Logger *logrus.Logger
}

// NewDataGenerator creates a new data generator
func NewDataGenerator(logger *logrus.Logger) *DataGenerator {
	return &DataGenerator{
		Faker:  faker.New(),
		Logger: logger,
	}
}

// Row generates one record for a table. Auto-increment columns are left
// out so the database assigns them; foreign key columns pick a random id
// from the rows already inserted into the referenced table. A required
// foreign key with nothing to reference fails the row; an invented id
// would only be rejected by the constraint at insert time.
func (dg *DataGenerator) Row(tm *models.TableModel, insertedIDs map[string][]int64) (map[string]interface{}, error) {
	row := make(map[string]interface{})

	refByColumn := make(map[string]string)
	for _, fk := range tm.ForeignKeys {
		refByColumn[fk.Column] = fk.ReferencedTable
	}

	for _, col := range tm.Columns {
		if col.AutoInc {
			continue
		}
		if col.ForeignKey {
			ids := insertedIDs[refByColumn[col.Name]]
			if len(ids) == 0 {
				if col.Nullable {
					row[col.Name] = nil
					continue
				}
				return nil, fmt.Errorf("table %s: no rows in %s to reference for column %s",
					tm.Name, refByColumn[col.Name], col.Name)
			}
			row[col.Name] = ids[rand.Intn(len(ids))]
			continue
		}
		row[col.Name] = dg.Value(col)
	}

	return row, nil
}

// Value generates a fake value for one column
func (dg *DataGenerator) Value(col models.ColumnSchema) interface{} {
	// Nullable columns stay empty some of the time
	if col.Nullable && rand.Float32() < 0.1 {
		return nil
	}
	if col.Default != nil && rand.Float32() < 0.2 {
		return col.Default
	}

	if v := dg.formatValue(col); v != nil {
		return v
	}
	if v := dg.nameValue(col); v != nil {
		return v
	}
	return dg.typeValue(col)
}

// formatValue handles columns whose schema property carried a format
func (dg *DataGenerator) formatValue(col models.ColumnSchema) interface{} {
	switch col.Format {
	case "email":
		return dg.Faker.Internet().Email()
	case "uuid":
		return dg.Faker.UUID().V4()
	case "uri", "url":
		return dg.Faker.Internet().URL()
	case "ipv4":
		return dg.Faker.Internet().Ipv4()
	case "date":
		return time.Now().Add(-time.Duration(rand.Intn(365)) * 24 * time.Hour).Format("2006-01-02")
	case "date-time":
		return time.Now().Add(-time.Duration(rand.Intn(30)) * 24 * time.Hour)
	}
	return nil
}

// nameValue handles well-known column names
func (dg *DataGenerator) nameValue(col models.ColumnSchema) interface{} {
	name := strings.ToLower(col.Name)
	switch {
	case strings.Contains(name, "email"):
		return dg.Faker.Internet().Email()
	case strings.Contains(name, "first_name"):
		return dg.Faker.Person().FirstName()
	case strings.Contains(name, "last_name"):
		return dg.Faker.Person().LastName()
	case strings.Contains(name, "company"):
		return dg.Faker.Company().Name()
	case strings.HasSuffix(name, "name"):
		return dg.Faker.Person().Name()
	case strings.Contains(name, "phone"):
		return dg.Faker.Phone().Number()
	case strings.Contains(name, "address"):
		return dg.Faker.Address().Address()
	case strings.Contains(name, "city"):
		return dg.Faker.Address().City()
	case strings.Contains(name, "country"):
		return dg.Faker.Address().Country()
	case strings.Contains(name, "title"):
		return dg.Faker.Lorem().Sentence(4)
	case strings.Contains(name, "description") || strings.Contains(name, "summary"):
		return dg.Faker.Lorem().Paragraph(2)
	case strings.Contains(name, "url") || strings.Contains(name, "website"):
		return dg.Faker.Internet().URL()
	case strings.Contains(name, "password"):
		return dg.Faker.Internet().Password()
	case strings.Contains(name, "created_at") || strings.Contains(name, "updated_at"):
		return time.Now().Add(-time.Duration(rand.Intn(30)) * 24 * time.Hour)
	}
	return nil
}

// typeValue falls back to the column's database type
func (dg *DataGenerator) typeValue(col models.ColumnSchema) interface{} {
	dbType := strings.ToLower(col.DBType)
	base := dbType
	if idx := strings.Index(base, "("); idx > 0 {
		base = base[:idx]
	}

	switch base {
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext":
		return dg.generateString(col)
	case "tinyint":
		if dbType == "tinyint(1)" {
			return rand.Intn(2)
		}
		return rand.Intn(128)
	case "int", "smallint", "mediumint", "bigint":
		return dg.generateInteger(col)
	case "float", "double", "decimal":
		return dg.generateFloat(col)
	case "date":
		return time.Now().Add(-time.Duration(rand.Intn(365)) * 24 * time.Hour).Format("2006-01-02")
	case "datetime", "timestamp":
		return time.Now().Add(-time.Duration(rand.Intn(30)) * 24 * time.Hour)
	case "json":
		return "{}"
	case "blob":
		return []byte(dg.Faker.Lorem().Word())
	default:
		dg.Logger.Warningf("No specific generator for type %s, using default string", col.DBType)
		return dg.Faker.Lorem().Word()
	}
}

func (dg *DataGenerator) generateString(col models.ColumnSchema) string {
	minLength := 1
	if col.MinLength != nil {
		minLength = *col.MinLength
	}
	maxLength := 50
	if col.MaxLength != nil {
		maxLength = *col.MaxLength
	}
	if maxLength > 255 {
		maxLength = 255
	}
	if minLength > maxLength {
		minLength = maxLength
	}

	length := minLength
	if maxLength > minLength {
		length = minLength + rand.Intn(maxLength-minLength)
	}
	if length < 1 {
		length = 1
	}
	return dg.Faker.RandomStringWithLength(length)
}

func (dg *DataGenerator) generateInteger(col models.ColumnSchema) int64 {
	min := int64(0)
	max := int64(100000)
	if col.Minimum != nil {
		min = int64(*col.Minimum)
	}
	if col.Maximum != nil {
		max = int64(*col.Maximum)
	}
	if max <= min {
		return min
	}
	return min + rand.Int63n(max-min+1)
}

func (dg *DataGenerator) generateFloat(col models.ColumnSchema) float64 {
	min := 0.0
	max := 100000.0
	if col.Minimum != nil {
		min = *col.Minimum
	}
	if col.Maximum != nil {
		max = *col.Maximum
	}
	if max <= min {
		return min
	}
	return min + rand.Float64()*(max-min)
}
