package resolver

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/restkit/schema2db/internal/document"
)

// testLogger suppresses log output during tests
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func scalarProp(name string, t document.PropertyType) *document.PropertySchema {
	return &document.PropertySchema{Name: name, Type: t}
}

func refProp(name, target string) *document.PropertySchema {
	return &document.PropertySchema{Name: name, Ref: target}
}

func arrayRefProp(name, target string) *document.PropertySchema {
	return &document.PropertySchema{Name: name, Type: document.TypeArray, ItemsRef: target}
}

func objectSchema(name string, required []string, props ...*document.PropertySchema) *document.ComponentSchema {
	return &document.ComponentSchema{
		Name:       name,
		IsObject:   true,
		Required:   required,
		Properties: props,
	}
}

func docOf(schemas ...*document.ComponentSchema) *document.SchemaMap {
	doc := document.NewSchemaMap()
	for _, cs := range schemas {
		doc.Add(cs)
	}
	return doc
}

// postTagDocument builds the canonical Post/Tag document linked through a
// junction schema. Extra properties are added to the junction schema.
func postTagDocument(junctionExtras ...*document.PropertySchema) *document.SchemaMap {
	junctionProps := []*document.PropertySchema{
		refProp("post", "Post"),
		refProp("tag", "Tag"),
	}
	junctionProps = append(junctionProps, junctionExtras...)

	return docOf(
		objectSchema("Post", []string{"title"},
			scalarProp("title", document.TypeString),
			arrayRefProp("postTags", "Junction_PostTag"),
		),
		objectSchema("Tag", nil,
			scalarProp("name", document.TypeString),
			arrayRefProp("postTags", "Junction_PostTag"),
		),
		objectSchema("Junction_PostTag", nil, junctionProps...),
	)
}

func TestDetectJunctionsPairSymmetry(t *testing.T) {
	doc := postTagDocument()

	set, err := DetectJunctions(doc, Config{}, testLogger())
	if err != nil {
		t.Fatalf("DetectJunctions returned error: %v", err)
	}

	if !set.IsJunctionSchema("Junction_PostTag") {
		t.Fatal("Expected Junction_PostTag to be detected as a junction schema")
	}
	if !set.PurelySynthetic("Junction_PostTag") {
		t.Error("Expected Junction_PostTag to be purely synthetic")
	}

	postSide, ok := set.Match("Post", "postTags")
	if !ok {
		t.Fatal("Expected a descriptor for Post.postTags")
	}
	tagSide, ok := set.Match("Tag", "postTags")
	if !ok {
		t.Fatal("Expected a descriptor for Tag.postTags")
	}

	if postSide.PairProperty != tagSide.OwnerProperty {
		t.Errorf("Expected postSide.PairProperty %s to equal tagSide.OwnerProperty %s",
			postSide.PairProperty, tagSide.OwnerProperty)
	}
	if tagSide.PairProperty != postSide.OwnerProperty {
		t.Errorf("Expected tagSide.PairProperty %s to equal postSide.OwnerProperty %s",
			tagSide.PairProperty, postSide.OwnerProperty)
	}
	if postSide.JunctionTableName != tagSide.JunctionTableName {
		t.Error("Expected both descriptors to share the junction table name")
	}
	if postSide.JunctionTableName != "post_tag" {
		t.Errorf("Expected junction table post_tag, got %s", postSide.JunctionTableName)
	}
	if postSide.TargetClassName != "Tag" {
		t.Errorf("Expected Post side to target Tag, got %s", postSide.TargetClassName)
	}
	if tagSide.TargetClassName != "Post" {
		t.Errorf("Expected Tag side to target Post, got %s", tagSide.TargetClassName)
	}
	if postSide.ForeignPKColumnName != "post_id" {
		t.Errorf("Expected Post side link column post_id, got %s", postSide.ForeignPKColumnName)
	}
	if postSide.RelatedFKColumnName != "tag_id" {
		t.Errorf("Expected Post side related link column tag_id, got %s", postSide.RelatedFKColumnName)
	}
}

func TestDetectJunctionsExtraPropertiesNotSynthetic(t *testing.T) {
	doc := postTagDocument(scalarProp("created_at", document.TypeString))

	set, err := DetectJunctions(doc, Config{}, testLogger())
	if err != nil {
		t.Fatalf("DetectJunctions returned error: %v", err)
	}
	if set.PurelySynthetic("Junction_PostTag") {
		t.Error("Expected junction with extra properties not to be purely synthetic")
	}
}

func TestDetectJunctionsFailsWithOneReciprocalReference(t *testing.T) {
	// Tag has no array reference back to the junction schema
	doc := docOf(
		objectSchema("Post", nil,
			scalarProp("title", document.TypeString),
			arrayRefProp("postTags", "Junction_PostTag"),
		),
		objectSchema("Tag", nil,
			scalarProp("name", document.TypeString),
		),
		objectSchema("Junction_PostTag", nil,
			refProp("post", "Post"),
			refProp("tag", "Tag"),
		),
	)

	_, err := DetectJunctions(doc, Config{}, testLogger())
	if err == nil {
		t.Fatal("Expected error for junction with one reciprocal reference")
	}
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("Expected StructuralError, got %T", err)
	}
	if structural.Schema != "Junction_PostTag" {
		t.Errorf("Expected error to name Junction_PostTag, got %s", structural.Schema)
	}
}

func TestDetectJunctionsFailsWithThreeReciprocalReferences(t *testing.T) {
	doc := docOf(
		objectSchema("Post", nil,
			scalarProp("title", document.TypeString),
			arrayRefProp("links", "Junction_Link"),
		),
		objectSchema("Tag", nil,
			scalarProp("name", document.TypeString),
			arrayRefProp("links", "Junction_Link"),
		),
		objectSchema("Category", nil,
			scalarProp("name", document.TypeString),
			arrayRefProp("links", "Junction_Link"),
		),
		objectSchema("Junction_Link", nil,
			refProp("post", "Post"),
			refProp("tag", "Tag"),
			refProp("category", "Category"),
		),
	)

	_, err := DetectJunctions(doc, Config{}, testLogger())
	if err == nil {
		t.Fatal("Expected error for junction with three reciprocal references")
	}
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("Expected StructuralError, got %T", err)
	}
}

func TestDetectJunctionsIgnoresIneligibleJunctionSchemas(t *testing.T) {
	// The junction schema is excluded, so it is never considered a
	// junction candidate and its malformed shape raises no error
	doc := docOf(
		objectSchema("Post", nil,
			scalarProp("title", document.TypeString),
			arrayRefProp("postTags", "Junction_PostTag"),
		),
		objectSchema("Junction_PostTag", nil,
			refProp("post", "Post"),
		),
	)

	cfg := Config{ExcludeModels: []string{"Junction_PostTag"}}
	set, err := DetectJunctions(doc, cfg, testLogger())
	if err != nil {
		t.Fatalf("Expected no error for excluded junction schema, got %v", err)
	}
	if set.IsJunctionSchema("Junction_PostTag") {
		t.Error("Expected excluded schema not to be a junction")
	}
}

func TestDetectJunctionsExcludesNonDatabaseTargets(t *testing.T) {
	// The junction references a composite schema, which cannot supply a
	// usable primary key; that reference is ignored, leaving one
	// reciprocal pair and a structural error
	doc := docOf(
		objectSchema("Post", nil,
			scalarProp("title", document.TypeString),
			arrayRefProp("postErrors", "Junction_PostError"),
		),
		&document.ComponentSchema{Name: "Error", IsComposite: true},
		objectSchema("Junction_PostError", nil,
			refProp("post", "Post"),
			refProp("error", "Error"),
		),
	)

	_, err := DetectJunctions(doc, Config{}, testLogger())
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("Expected StructuralError for unpaired junction, got %v", err)
	}
}

func TestTrimPrefix(t *testing.T) {
	if TrimPrefix("Junction_PostTag") != "PostTag" {
		t.Error("Expected Junction_ prefix to be trimmed")
	}
	if TrimPrefix("Post") != "Post" {
		t.Error("Expected non-junction name to pass through")
	}
}
