package markup

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TextKey is the mapping key holding an element's text content in the YAML
// document form.
const TextKey = "_text"

// ParseYAML parses the YAML document form into a Node tree.
//
// The document is a single-key mapping naming the root element. Within an
// element, scalar values are attributes, mappings are child elements and
// sequences repeat a child element once per item:
//
//	device:
//	  version: 1
//	  channels:
//	    channel:
//	      - index: 0
//	        type: MAINTENANCE
//	      - index: 1
//	        type: SWITCH
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNoRoot
	}

	top := doc.Content[0]
	if top.Kind != yaml.MappingNode || len(top.Content) != 2 {
		return nil, fmt.Errorf("parsing yaml: line %d: document must be a single-key mapping", top.Line)
	}

	nodes, err := yamlElements(top.Content[0].Value, top.Content[1])
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("parsing yaml: root %q must not be a sequence", top.Content[0].Value)
	}
	return nodes[0], nil
}

// yamlElements converts the value of key name into one element, or one per
// item for sequences.
func yamlElements(name string, value *yaml.Node) ([]*Node, error) {
	switch value.Kind {
	case yaml.AliasNode:
		return yamlElements(name, value.Alias)

	case yaml.ScalarNode:
		return []*Node{{Name: name, Text: value.Value}}, nil

	case yaml.MappingNode:
		n := &Node{Name: name}
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i].Value, value.Content[i+1]
			if val.Kind == yaml.AliasNode {
				val = val.Alias
			}
			if val.Kind == yaml.ScalarNode {
				if key == TextKey {
					n.Text = val.Value
				} else {
					n.Attrs = append(n.Attrs, Attr{Name: key, Value: val.Value})
				}
				continue
			}
			children, err := yamlElements(key, val)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, children...)
		}
		return []*Node{n}, nil

	case yaml.SequenceNode:
		var out []*Node
		for _, item := range value.Content {
			if item.Kind == yaml.SequenceNode {
				return nil, fmt.Errorf("parsing yaml: line %d: nested sequence under %q", item.Line, name)
			}
			children, err := yamlElements(name, item)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("parsing yaml: line %d: unsupported node under %q", value.Line, name)
	}
}
