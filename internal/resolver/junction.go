package resolver

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/document"
)

// JunctionPrefix marks schemas whose sole purpose is to link two other
// schemas into a many-to-many relation
const JunctionPrefix = "Junction_"

// JunctionDescriptor describes one side of a validated junction pair.
// Descriptors come in mirrored pairs: PairProperty of one equals
// OwnerProperty of the other, and both carry the same junction table.
type JunctionDescriptor struct {
	// OwnerProperty is the junction schema property referencing this side
	OwnerProperty string
	// PairProperty is the junction schema property referencing the other side
	PairProperty string
	// RefProperty is the reciprocal array property on this side's schema
	RefProperty string
	// ClassName is this side's schema name
	ClassName string
	// TargetClassName is the other side's schema name
	TargetClassName string

	JunctionSchemaName string
	JunctionTableName  string
	RelatedTableName   string

	// ForeignPKColumnName is the junction column pointing at this side
	ForeignPKColumnName string
	// RelatedFKColumnName is the junction column pointing at the other side
	RelatedFKColumnName string

	// AttrType and DBType describe the other side's primary key
	AttrType string
	DBType   string
}

// JunctionSet holds every junction descriptor detected in a document
type JunctionSet struct {
	byClass   map[string][]JunctionDescriptor
	junctions map[string]bool
	synthetic map[string]bool
}

// IsJunctionSchema reports whether the named schema was detected as a
// junction schema
func (js *JunctionSet) IsJunctionSchema(name string) bool {
	return js.junctions[name]
}

// PurelySynthetic reports whether the junction schema carries nothing
// beyond its two paired references and therefore produces no standalone
// table model
func (js *JunctionSet) PurelySynthetic(name string) bool {
	return js.synthetic[name]
}

// Match returns the descriptor for a reciprocal property on a regular
// schema, if the property participates in a junction pair
func (js *JunctionSet) Match(class, property string) (JunctionDescriptor, bool) {
	for _, d := range js.byClass[class] {
		if d.RefProperty == property {
			return d, true
		}
	}
	return JunctionDescriptor{}, false
}

// TrimPrefix strips the junction naming prefix from a schema name
func TrimPrefix(name string) string {
	return strings.TrimPrefix(name, JunctionPrefix)
}

// reciprocalRef records one reference from a junction schema to a target
// schema that references the junction back through an array property
type reciprocalRef struct {
	property   string
	refSchema  string
	reciprocal string
	fkColumn   string
	attrType   string
	dbType     string
}

// DetectJunctions scans the document for junction-named schemas and
// validates each into a mirrored descriptor pair. A junction is strictly
// binary; any eligible junction schema that does not resolve to exactly
// two reciprocal references is a fatal structural error.
func DetectJunctions(doc document.Document, cfg Config, logger *logrus.Logger) (*JunctionSet, error) {
	set := &JunctionSet{
		byClass:   make(map[string][]JunctionDescriptor),
		junctions: make(map[string]bool),
		synthetic: make(map[string]bool),
	}

	for _, name := range doc.SchemaNames() {
		if !strings.HasPrefix(name, JunctionPrefix) {
			continue
		}
		cs, _ := doc.Schema(name)
		if !EligibleForTable(name, cs, cfg) {
			logger.Debugf("Junction-named schema %s is not eligible for a table, skipping", name)
			continue
		}

		refs, err := collectReciprocalRefs(name, cs, doc, cfg, logger)
		if err != nil {
			return nil, err
		}
		if len(refs) != 2 {
			return nil, &StructuralError{
				Schema: name,
				Reason: fmt.Sprintf("junction table must reference exactly two other schemas, found %d", len(refs)),
			}
		}

		junctionTable := cs.TableName
		if junctionTable == "" {
			junctionTable = document.ToSnakeCase(TrimPrefix(name))
		}

		// Cross-link the two sides into a symmetric pair: each descriptor
		// points at the other side's schema and key, so the pair is usable
		// independently from either side.
		for i := range refs {
			own, other := refs[i], refs[1-i]
			set.byClass[own.refSchema] = append(set.byClass[own.refSchema], JunctionDescriptor{
				OwnerProperty:       own.property,
				PairProperty:        other.property,
				RefProperty:         own.reciprocal,
				ClassName:           own.refSchema,
				TargetClassName:     other.refSchema,
				JunctionSchemaName:  name,
				JunctionTableName:   junctionTable,
				RelatedTableName:    tableNameFor(other.refSchema, doc),
				ForeignPKColumnName: own.fkColumn,
				RelatedFKColumnName: other.fkColumn,
				AttrType:            other.attrType,
				DBType:              other.dbType,
			})
		}

		set.junctions[name] = true
		set.synthetic[name] = len(cs.Properties) == 2
		logger.Debugf("Detected junction schema %s linking %s and %s", name, refs[0].refSchema, refs[1].refSchema)
	}

	return set, nil
}

// collectReciprocalRefs gathers the reciprocal reference tuples of one
// junction schema, failing as soon as a third one is found
func collectReciprocalRefs(name string, cs *document.ComponentSchema, doc document.Document, cfg Config, logger *logrus.Logger) ([]reciprocalRef, error) {
	var refs []reciprocalRef

	for _, prop := range cs.Properties {
		if !prop.IsReference() {
			continue
		}

		target, ok := doc.Schema(prop.Ref)
		if !ok || !EligibleForTable(prop.Ref, target, cfg) {
			// A target that cannot supply a usable primary key is excluded
			// from the pair search rather than failing the run
			logger.Debugf("Junction %s: reference %s points at non-database schema %s, ignoring", name, prop.Name, prop.Ref)
			continue
		}

		for _, tp := range target.Properties {
			if !tp.IsArrayOfReferences() || tp.ItemsRef != name {
				continue
			}
			if len(refs) == 2 {
				return nil, &StructuralError{
					Schema: name,
					Reason: "junction table must reference exactly two other schemas, found more than two",
				}
			}
			attrType, dbType := referencedPKTypes(target)
			refs = append(refs, reciprocalRef{
				property:   prop.Name,
				refSchema:  prop.Ref,
				reciprocal: tp.Name,
				fkColumn:   prop.FKColumnName(),
				attrType:   attrType,
				dbType:     dbType,
			})
			break
		}
	}

	return refs, nil
}

// tableNameFor resolves a schema name to its table name without requiring
// the table model to exist yet
func tableNameFor(name string, doc document.Document) string {
	if cs, ok := doc.Schema(name); ok && cs.TableName != "" {
		return cs.TableName
	}
	return document.ToSnakeCase(TrimPrefix(name))
}
