package resolver

import (
	"strings"

	"github.com/restkit/schema2db/internal/document"
)

// Config controls which schemas produce database tables
type Config struct {
	ExcludeModels            []string
	SkipUnderscoredSchemas   bool
	GenerateModelsOnlyXTable bool
}

func (c Config) isExcluded(name string) bool {
	for _, excluded := range c.ExcludeModels {
		if excluded == name {
			return true
		}
	}
	return false
}

// EligibleForTable reports whether a schema produces a database table.
// The junction detector and the orchestrator apply this filter
// identically; a schema ineligible for a table is also ineligible to be
// treated as a junction.
func EligibleForTable(name string, cs *document.ComponentSchema, cfg Config) bool {
	if cs.IsNonDB() {
		return false
	}
	if cfg.isExcluded(name) {
		return false
	}
	if cfg.SkipUnderscoredSchemas && strings.HasPrefix(name, "_") {
		return false
	}
	if cfg.GenerateModelsOnlyXTable && cs.TableName == "" {
		return false
	}
	return true
}
