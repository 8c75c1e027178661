package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const refPrefix = "#/components/schemas/"

// LoadFile parses an OpenAPI-style specification file (YAML or JSON) into
// a schema map. Only components.schemas is consumed; a file without the
// components wrapper is treated as a bare schema map.
func LoadFile(path string, logger *logrus.Logger) (*SchemaMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing spec file %s: %w", path, err)
	}

	logger.Infof("Loaded %d schemas from %s", len(doc.SchemaNames()), path)
	return doc, nil
}

// Parse parses specification bytes into a schema map, preserving the
// declaration order of schemas and properties
func Parse(data []byte) (*SchemaMap, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("empty specification document")
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("specification root must be a mapping")
	}

	schemasNode := findSchemasNode(top)
	if schemasNode == nil {
		return nil, fmt.Errorf("no schema definitions found")
	}

	doc := NewSchemaMap()
	for i := 0; i < len(schemasNode.Content)-1; i += 2 {
		name := schemasNode.Content[i].Value
		cs, err := parseComponent(name, schemasNode.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		doc.Add(cs)
	}
	return doc, nil
}

// findSchemasNode locates components.schemas, falling back to the root
// mapping itself
func findSchemasNode(top *yaml.Node) *yaml.Node {
	if components := mappingValue(top, "components"); components != nil {
		if schemas := mappingValue(components, "schemas"); schemas != nil {
			return schemas
		}
		return nil
	}
	return top
}

// mappingValue returns the value node for a key in a mapping node, or nil
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func parseComponent(name string, node *yaml.Node) (*ComponentSchema, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("definition must be a mapping")
	}

	cs := &ComponentSchema{Name: name}

	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		switch key {
		case "type":
			cs.IsObject = value.Value == "object"
		case "properties":
			if value.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("properties must be a mapping")
			}
			for j := 0; j < len(value.Content)-1; j += 2 {
				prop, err := parseProperty(value.Content[j].Value, value.Content[j+1])
				if err != nil {
					return nil, fmt.Errorf("property %s: %w", value.Content[j].Value, err)
				}
				cs.Properties = append(cs.Properties, prop)
			}
		case "required":
			if err := value.Decode(&cs.Required); err != nil {
				return nil, fmt.Errorf("required: %w", err)
			}
		case "allOf", "oneOf", "anyOf":
			cs.IsComposite = true
		case "x-table":
			cs.TableName = value.Value
		case "x-pk":
			cs.PKName = value.Value
		case "x-indexes":
			if err := value.Decode(&cs.IndexSpecs); err != nil {
				return nil, fmt.Errorf("x-indexes: %w", err)
			}
		}
	}

	// A bare properties mapping without an explicit type still describes
	// an object schema
	if !cs.IsObject && len(cs.Properties) > 0 && !cs.IsComposite {
		cs.IsObject = true
	}

	return cs, nil
}

func parseProperty(name string, node *yaml.Node) (*PropertySchema, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("property must be a mapping")
	}

	p := &PropertySchema{Name: name}

	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		var err error
		switch key {
		case "type":
			p.Type = PropertyType(value.Value)
		case "format":
			p.Format = value.Value
		case "$ref":
			p.Ref = refName(value.Value)
		case "items":
			if ref := mappingValue(value, "$ref"); ref != nil {
				p.ItemsRef = refName(ref.Value)
			}
		case "x-db-type":
			p.DBType = value.Value
		case "minLength":
			err = value.Decode(&p.MinLength)
		case "maxLength":
			err = value.Decode(&p.MaxLength)
		case "minimum":
			err = value.Decode(&p.Minimum)
		case "maximum":
			err = value.Decode(&p.Maximum)
		case "default":
			err = value.Decode(&p.Default)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}

	if p.Ref != "" && (p.Type != "" || p.ItemsRef != "") {
		return nil, fmt.Errorf("$ref cannot be combined with type or items")
	}

	return p, nil
}

// refName extracts the schema name from a local reference
func refName(ref string) string {
	if strings.HasPrefix(ref, refPrefix) {
		return strings.TrimPrefix(ref, refPrefix)
	}
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
