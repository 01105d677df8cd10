package connect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

func (k kind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindBool:
		return "boolean"
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindArray:
		return "array"
	case kindObject:
		return "object"
	}
	return "unknown"
}

type member struct {
	key string
	val *node
}

// node es un valor JSON que conserva el orden de claves de los objetos.
type node struct {
	kind    kind
	b       bool
	num     json.Number
	str     string
	items   []*node
	members []member
}

// parse lee exactamente un valor JSON de r.
func parse(r io.Reader) (*node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	n, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return n, nil
}

func parseValue(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case nil:
		return &node{kind: kindNull}, nil
	case bool:
		return &node{kind: kindBool, b: v}, nil
	case json.Number:
		return &node{kind: kindNumber, num: v}, nil
	case string:
		return &node{kind: kindString, str: v}, nil
	case json.Delim:
		switch v {
		case '[':
			n := &node{kind: kindArray, items: []*node{}}
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '{':
			n := &node{kind: kindObject, members: []member{}}
			seen := map[string]int{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("invalid object key %v", kt)
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				// Clave repetida: gana la última, en la posición de la primera.
				if i, dup := seen[key]; dup {
					n.members[i].val = val
					continue
				}
				seen[key] = len(n.members)
				n.members = append(n.members, member{key: key, val: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// toAny convierte a los tipos de encoding/json (map[string]any, []any...).
func (n *node) toAny() any {
	switch n.kind {
	case kindBool:
		return n.b
	case kindNumber:
		if i, err := n.num.Int64(); err == nil {
			return i
		}
		f, _ := n.num.Float64()
		return f
	case kindString:
		return n.str
	case kindArray:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = it.toAny()
		}
		return out
	case kindObject:
		out := make(map[string]any, len(n.members))
		for _, m := range n.members {
			out[m.key] = m.val.toAny()
		}
		return out
	}
	return nil
}
