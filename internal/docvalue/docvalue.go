// Package docvalue implements a dynamic, order-preserving JSON/YAML
// value — the sum type of null/bool/number/string/array/object the
// hierarchy walker operates over. Plain map[string]any loses key order
// on every round trip, which breaks the byte-identical guarantee the
// volatile-diff gate depends on, so objects are represented the way
// mongo-driver's bson.D represents a BSON document: an ordered list of
// key/value pairs, rather than a Go map.
package docvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is any JSON/YAML value: nil, bool, json.Number, string, Array,
// or Document.
type Value = interface{}

// E is one key/value pair of a Document, mirroring bson.E.
type E struct {
	Key   string
	Value Value
}

// Document is an ordered object, mirroring bson.D.
type Document []E

// Array is an ordered list, mirroring bson.A.
type Array []Value

// Get returns the value stored under key and whether it was present.
func (d Document) Get(key string) (Value, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set returns a copy of d with key set to value, replacing any existing
// entry in place or appending a new one at the end.
func (d Document) Set(key string, value Value) Document {
	out := make(Document, len(d))
	copy(out, d)
	for i, e := range out {
		if e.Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, E{Key: key, Value: value})
}

// Delete returns a copy of d with key removed, if present.
func (d Document) Delete(key string) Document {
	out := make(Document, 0, len(d))
	for _, e := range d {
		if e.Key == key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Keys returns the ordered list of keys in d.
func (d Document) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// Clone performs a deep copy of v.
func Clone(v Value) Value {
	switch t := v.(type) {
	case Document:
		out := make(Document, len(t))
		for i, e := range t {
			out[i] = E{Key: e.Key, Value: Clone(e.Value)}
		}
		return out
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return t
	}
}

// Equal reports whether a and b are deeply equal, matching Document
// entries by key regardless of their order and comparing numbers by
// value.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Document:
		bv, ok := b.(Document)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, e := range av {
			other, found := bv.Get(e.Key)
			if !found || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case json.Number:
		bv, ok := b.(json.Number)
		return ok && numberEqual(av, bv)
	default:
		return a == b
	}
}

func numberEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	af, aerr := a.Float64()
	bf, berr := b.Float64()
	return aerr == nil && berr == nil && af == bf
}

// DecodeJSON parses data, preserving object key order and number
// literals exactly as written.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if err := expectJSONEOF(dec); err != nil {
		return nil, err
	}
	return v, nil
}

func expectJSONEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err == nil {
		return fmt.Errorf("docvalue: unexpected trailing content")
	}
	return nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		default:
			return nil, fmt.Errorf("docvalue: unexpected delimiter %q", t)
		}
	case string, json.Number, bool:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("docvalue: unexpected token %T", tok)
	}
}

func decodeJSONObject(dec *json.Decoder) (Document, error) {
	doc := Document{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("docvalue: object key is not a string")
		}
		val, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		doc = append(doc, E{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, err
	}
	return doc, nil
}

func decodeJSONArray(dec *json.Decoder) (Array, error) {
	arr := Array{}
	for dec.More() {
		val, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, err
	}
	return arr, nil
}

// EncodeJSON serializes v with the given indent (number of spaces per
// nesting level; 0 means compact, no whitespace).
func EncodeJSON(v Value, indent int) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSONValue(&buf, v, indent, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSONValue(buf *bytes.Buffer, v Value, indent, depth int) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(string(t))
	case float64:
		buf.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case int:
		buf.WriteString(strconv.Itoa(t))
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Document:
		return encodeJSONDocument(buf, t, indent, depth)
	case Array:
		return encodeJSONArray(buf, t, indent, depth)
	default:
		return fmt.Errorf("docvalue: cannot encode %T as JSON", v)
	}
	return nil
}

func newline(buf *bytes.Buffer, indent, depth int) {
	if indent <= 0 {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(" ", indent*depth))
}

func encodeJSONDocument(buf *bytes.Buffer, doc Document, indent, depth int) error {
	if len(doc) == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteByte('{')
	for i, e := range doc {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, indent, depth+1)
		keyBytes, err := json.Marshal(e.Key)
		if err != nil {
			return err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		if indent > 0 {
			buf.WriteByte(' ')
		}
		if err := encodeJSONValue(buf, e.Value, indent, depth+1); err != nil {
			return err
		}
	}
	newline(buf, indent, depth)
	buf.WriteByte('}')
	return nil
}

func encodeJSONArray(buf *bytes.Buffer, arr Array, indent, depth int) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, indent, depth+1)
		if err := encodeJSONValue(buf, v, indent, depth+1); err != nil {
			return err
		}
	}
	newline(buf, indent, depth)
	buf.WriteByte(']')
	return nil
}

// MarshalYAML implements yaml.Marshaler so a Document encodes as an
// order-preserving mapping node instead of being sorted alphabetically
// the way a plain map would be.
func (d Document) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range d {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
		valNode, err := toYAMLNode(e.Value)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// MarshalYAML implements yaml.Marshaler for Array.
func (a Array) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range a {
		valNode, err := toYAMLNode(v)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, valNode)
	}
	return node, nil
}

func toYAMLNode(v Value) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(t), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(t)}, nil
	case Document:
		iface, err := t.MarshalYAML()
		if err != nil {
			return nil, err
		}
		return iface.(*yaml.Node), nil
	case Array:
		iface, err := t.MarshalYAML()
		if err != nil {
			return nil, err
		}
		return iface.(*yaml.Node), nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(t); err != nil {
			return nil, err
		}
		return node, nil
	}
}

// UnmarshalYAML implements yaml.Unmarshaler so a mapping decodes
// preserving key order.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("docvalue: expected mapping node, got kind %d", node.Kind)
	}
	doc := make(Document, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		val, err := fromYAMLNode(node.Content[i+1])
		if err != nil {
			return err
		}
		doc = append(doc, E{Key: key, Value: val})
	}
	*d = doc
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Array.
func (a *Array) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("docvalue: expected sequence node, got kind %d", node.Kind)
	}
	arr := make(Array, 0, len(node.Content))
	for _, c := range node.Content {
		v, err := fromYAMLNode(c)
		if err != nil {
			return err
		}
		arr = append(arr, v)
	}
	*a = arr
	return nil
}

func fromYAMLNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var d Document
		if err := d.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return d, nil
	case yaml.SequenceNode:
		var a Array
		if err := a.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return a, nil
	case yaml.ScalarNode:
		return scalarFromYAMLNode(node)
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	default:
		return nil, fmt.Errorf("docvalue: unsupported yaml node kind %d", node.Kind)
	}
}

func scalarFromYAMLNode(node *yaml.Node) (Value, error) {
	switch node.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		return json.Number(node.Value), nil
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	}
}

// DecodeYAML parses a single YAML document, preserving mapping key
// order and numeric literal text.
func DecodeYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(doc.Content[0])
	}
	return fromYAMLNode(&doc)
}

// EncodeYAML serializes v using the given indent width (yaml.v3 default
// is 4 when indent <= 0).
func EncodeYAML(v Value, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if indent > 0 {
		enc.SetIndent(indent)
	}
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SortedKeysForDebug returns d's keys sorted alphabetically, giving a
// deterministic key listing regardless of Document order.
func SortedKeysForDebug(d Document) []string {
	keys := d.Keys()
	sort.Strings(keys)
	return keys
}
