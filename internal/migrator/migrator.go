package migrator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/connector"
	"github.com/restkit/schema2db/pkg/models"
)

// Migrator applies the rendered DDL of a resolved model to a database
type Migrator struct {
	DB     *connector.DatabaseConnector
	Logger *logrus.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *connector.DatabaseConnector, logger *logrus.Logger) *Migrator {
	return &Migrator{
		DB:     db,
		Logger: logger,
	}
}

// Apply executes every DDL statement for the resolved model in order and
// returns the number of statements applied
func (m *Migrator) Apply(tables map[string]*models.TableModel) (int, error) {
	stmts := BuildDDL(tables)

	applied := 0
	for _, stmt := range stmts {
		m.Logger.Debugf("Executing: %s", stmt)
		if _, err := m.DB.ExecuteStatement(stmt); err != nil {
			return applied, fmt.Errorf("applying statement %d of %d: %w", applied+1, len(stmts), err)
		}
		applied++
	}

	m.Logger.Infof("Applied %d DDL statements for %d tables", applied, len(tables))
	return applied, nil
}
