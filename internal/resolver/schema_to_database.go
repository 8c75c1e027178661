package resolver

import (
	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/document"
	"github.com/restkit/schema2db/pkg/models"
)

// SchemaToDatabase drives the schema-to-relational-model resolution over
// a whole document. It is the single owner of the resulting table model
// mapping.
type SchemaToDatabase struct {
	Config Config
	Logger *logrus.Logger
}

// NewSchemaToDatabase creates a new orchestrator
func NewSchemaToDatabase(cfg Config, logger *logrus.Logger) *SchemaToDatabase {
	return &SchemaToDatabase{
		Config: cfg,
		Logger: logger,
	}
}

// PrepareModels resolves every eligible schema into a table model, keyed
// by table name. Resolution is two-phase: phase one builds every table
// model, phase two wires up many-to-many metadata that requires the
// complete table set. A structural document error aborts the whole call
// with no partial model.
func (sd *SchemaToDatabase) PrepareModels(doc document.Document) (map[string]*models.TableModel, error) {
	junctions, err := DetectJunctions(doc, sd.Config, sd.Logger)
	if err != nil {
		return nil, err
	}

	// Phase 1: resolve each eligible schema in document order
	result := make(map[string]*models.TableModel)
	for _, name := range doc.SchemaNames() {
		cs, _ := doc.Schema(name)
		if !EligibleForTable(name, cs, sd.Config) {
			sd.Logger.Debugf("Schema %s is not eligible for a table, skipping", name)
			continue
		}
		if junctions.IsJunctionSchema(name) && junctions.PurelySynthetic(name) {
			// Purely relational junctions carry nothing beyond their two
			// paired references; the junction table is derived from the
			// relation itself, not from a standalone model
			sd.Logger.Debugf("Junction schema %s is purely relational, no standalone model", name)
			continue
		}
		tm := ResolveTable(name, cs, doc, junctions, sd.Logger)
		result[tm.Name] = tm
	}

	// Phase 2: every table model exists now, so many-to-many relations can
	// resolve their via-model flag and primary key attributes
	byModel := make(map[string]*models.TableModel, len(result))
	for _, tm := range result {
		byModel[tm.ModelName] = tm
	}
	for _, tm := range result {
		for i := range tm.ManyToMany {
			rel := &tm.ManyToMany[i]
			_, rel.HasViaModel = result[rel.ViaTableName]

			pk := tm.PrimaryKey
			rel.PKAttribute = &pk
			if related, ok := byModel[rel.RelatedSchemaName]; ok {
				relatedPK := related.PrimaryKey
				rel.RelatedPKAttribute = &relatedPK
			} else {
				sd.Logger.Warningf("Table %s: many-to-many relation targets %s, which produced no table model", tm.Name, rel.RelatedSchemaName)
			}
		}
	}

	return result, nil
}
