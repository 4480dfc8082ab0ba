/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

// ToText encodes a DAG into its canonical JSON text.
func (s *Serializer) ToText(dag *model.DAG) (string, error) {
	doc, err := s.ToDocument(dag)
	if err != nil {
		return "", err
	}
	data, err := EncodeJSON(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromText rebuilds a DAG from JSON text.
func (s *Serializer) FromText(text string) (*model.DAG, error) {
	doc, err := DecodeJSON([]byte(text))
	if err != nil {
		return nil, err
	}
	return s.FromDocument(doc)
}

// ToYAML encodes a DAG into the YAML text form of its document.
func (s *Serializer) ToYAML(dag *model.DAG) (string, error) {
	doc, err := s.ToDocument(dag)
	if err != nil {
		return "", err
	}
	data, err := EncodeYAML(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromYAML rebuilds a DAG from YAML text.
func (s *Serializer) FromYAML(text string) (*model.DAG, error) {
	doc, err := DecodeYAML([]byte(text))
	if err != nil {
		return nil, err
	}
	return s.FromDocument(doc)
}

// EncodeJSON writes a document as compact JSON with sorted keys. Floats always carry a
// fraction or exponent so they read back as floats.
func EncodeJSON(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, map[string]any(doc)); err != nil {
		return nil, &SerializationError{Msg: err.Error(), Err: err}
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case int:
		buf.WriteString(strconv.Itoa(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case float64:
		text, err := formatFloat(v)
		if err != nil {
			return err
		}
		buf.WriteString(text)
	case string:
		return writeJSONString(buf, v)
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		return writeJSON(buf, stringList(v))
	case map[string]any:
		buf.WriteByte('{')
		for i, key := range sortedKeys(v) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Document:
		return writeJSON(buf, map[string]any(v))
	default:
		return fmt.Errorf("cannot write value of type %T as JSON", value)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, value string) error {
	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(out.Bytes(), "\n"))
	return nil
}

func formatFloat(value float64) (string, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", fmt.Errorf("cannot write %v as JSON", value)
	}
	format := byte('g')
	if abs := math.Abs(value); abs == 0 || (abs >= 1e-4 && abs < 1e21) {
		format = 'f'
	}
	text := strconv.FormatFloat(value, format, -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text, nil
}

// DecodeJSON parses a JSON document. Integral literals become int, other numbers float64.
func DecodeJSON(data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, &DeserializationError{Msg: "document is not valid JSON", Err: err}
	}
	normalized, err := normalizeJSON(raw)
	if err != nil {
		return nil, &DeserializationError{Msg: err.Error(), Err: err}
	}
	doc, ok := normalized.(map[string]any)
	if !ok {
		return nil, &SchemaError{Msg: "document must be a JSON object"}
	}
	return Document(doc), nil
}

func normalizeJSON(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		return normalizeNumber(v)
	case []any:
		for i, item := range v {
			normalized, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			v[i] = normalized
		}
		return v, nil
	case map[string]any:
		for key, item := range v {
			normalized, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			v[key] = normalized
		}
		return v, nil
	}
	return value, nil
}

func normalizeNumber(number json.Number) (any, error) {
	text := number.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := number.Int64(); err == nil {
			return int(i), nil
		}
	}
	f, err := number.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return f, nil
}

// EncodeYAML writes a document as YAML with sorted keys. Scalars carry explicit tags in the
// node tree so that integers and floats stay distinct.
func EncodeYAML(doc Document) ([]byte, error) {
	node, err := toYAMLNode(map[string]any(doc))
	if err != nil {
		return nil, &SerializationError{Msg: err.Error(), Err: err}
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(node); err != nil {
		return nil, &SerializationError{Msg: "failed to write YAML", Err: err}
	}
	if err := encoder.Close(); err != nil {
		return nil, &SerializationError{Msg: "failed to write YAML", Err: err}
	}
	return buf.Bytes(), nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toYAMLNode(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(v)), nil
	case int:
		return scalarNode("!!int", strconv.Itoa(v)), nil
	case int64:
		return scalarNode("!!int", strconv.FormatInt(v, 10)), nil
	case float64:
		text, err := formatFloat(v)
		if err != nil {
			return nil, err
		}
		return scalarNode("!!float", text), nil
	case string:
		return scalarNode("!!str", v), nil
	case []string:
		return toYAMLNode(stringList(v))
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			child, err := toYAMLNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case map[string]any:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range sortedKeys(v) {
			child, err := toYAMLNode(v[key])
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, scalarNode("!!str", key), child)
		}
		return node, nil
	case Document:
		return toYAMLNode(map[string]any(v))
	}
	return nil, fmt.Errorf("cannot write value of type %T as YAML", value)
}

// DecodeYAML parses a YAML document into the same value shapes DecodeJSON produces.
func DecodeYAML(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &DeserializationError{Msg: "document is not valid YAML", Err: err}
	}
	reader := &yamlReader{budget: maxYAMLNodes}
	value, err := reader.read(&root)
	if err != nil {
		return nil, &DeserializationError{Msg: err.Error(), Err: err}
	}
	doc, ok := value.(map[string]any)
	if !ok {
		return nil, &SchemaError{Msg: "document must be a mapping"}
	}
	return Document(doc), nil
}

// maxYAMLNodes bounds the nodes a YAML document may expand to, counting every alias expansion.
const maxYAMLNodes = 1 << 20

// yamlReader converts a YAML node tree into plain values within a node budget.
type yamlReader struct {
	budget int
}

func (r *yamlReader) read(node *yaml.Node) (any, error) {
	r.budget--
	if r.budget < 0 {
		return nil, fmt.Errorf("line %d: document expands to more than %d YAML nodes", node.Line, maxYAMLNodes)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return r.read(node.Content[0])
	case yaml.AliasNode:
		return r.read(node.Alias)
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := r.read(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			value, err := r.read(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[keyNode.Value] = value
		}
		return out, nil
	case yaml.ScalarNode:
		return decodeYAMLScalar(node)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
}

func decodeYAMLScalar(node *yaml.Node) (any, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int
		if err := node.Decode(&i); err != nil {
			return nil, err
		}
		return i, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	case "!!str":
		return node.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML tag %s", node.Line, node.ShortTag())
}
