package utils

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/resolver"
	"github.com/restkit/schema2db/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	logger := logrus.New()

	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("SCHEMA2DB_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	return logger
}

// LoadEnvironmentVariables loads environment variables from a .env file
// if one exists
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) {
	if _, err := os.Stat(envFile); err != nil {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warningf("Error loading %s file: %v", envFile, err)
		return
	}
	logger.Infof("Loaded environment variables from %s", envFile)
}

// GetEnvInt gets an integer value from an environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetEnvBool gets a boolean value from an environment variable
func GetEnvBool(varName string, defaultValue bool) bool {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// PrintModelAnalysis prints a detailed report of the resolved relational
// model
func PrintModelAnalysis(tables map[string]*models.TableModel) {
	order, circular := resolver.DependencyOrder(tables)

	totalColumns := 0
	totalFKs := 0
	manyToMany := 0
	junctionTables := 0
	for _, tm := range tables {
		totalColumns += len(tm.Columns)
		totalFKs += len(tm.ForeignKeys)
		manyToMany += len(tm.ManyToMany)
		if tm.IsJunction {
			junctionTables++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("RESOLVED RELATIONAL MODEL REPORT")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("\n1. BASIC STATISTICS")
	fmt.Printf("   Total tables: %d\n", len(tables))
	fmt.Printf("   Total columns: %d\n", totalColumns)
	fmt.Printf("   Foreign keys: %d\n", totalFKs)
	fmt.Printf("   Many-to-many relation sides: %d\n", manyToMany)
	fmt.Printf("   Junction tables with standalone models: %d\n", junctionTables)
	fmt.Printf("   Tables in circular references: %d\n", len(circular))

	fmt.Println("\n2. TABLES")
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tm := tables[name]
		fmt.Printf("   %s (model %s, pk %s)\n", tm.Name, tm.ModelName, tm.PrimaryKey)
		for _, col := range tm.Columns {
			nullable := "NOT NULL"
			if col.Nullable {
				nullable = "NULL"
			}
			fmt.Printf("     - %s %s %s\n", col.Name, col.DBType, nullable)
		}
		for _, fk := range tm.ForeignKeys {
			fmt.Printf("     FK %s -> %s.%s\n", fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
		}
		for _, rel := range tm.ManyToMany {
			via := rel.ViaTableName
			if rel.HasViaModel {
				via += " (standalone model)"
			}
			fmt.Printf("     M2M -> %s via %s\n", rel.RelatedTableName, via)
		}
	}

	if len(circular) > 0 {
		var circularList []string
		for name := range circular {
			circularList = append(circularList, name)
		}
		sort.Strings(circularList)
		fmt.Println("\n3. CIRCULAR REFERENCES")
		fmt.Printf("   Tables involved: %s\n", strings.Join(circularList, ", "))
	}

	fmt.Println("\n4. TABLE CREATION ORDER")
	for i, name := range order {
		category := "Standalone"
		tm := tables[name]
		switch {
		case tm.IsJunction:
			category = "Junction"
		case circular[name]:
			category = "Circular"
		case len(tm.ForeignKeys) > 0:
			category = "Dependent"
		}
		fmt.Printf("   %3d. %s (%s)\n", i+1, name, category)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}

// PrintDDL prints the rendered DDL statements
func PrintDDL(stmts []string) {
	for _, stmt := range stmts {
		fmt.Printf("%s;\n", stmt)
	}
}
