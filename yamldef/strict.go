package yamldef

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var errEmpty = errors.New("empty definition")

// Position is a 1-based line and column in a definition file.
type Position struct {
	Line, Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

func nodePos(n *yaml.Node) Position { return Position{Line: n.Line, Column: n.Column} }

// DuplicateKeyError reports a key declared twice in the same mapping.
type DuplicateKeyError struct {
	Path  string // dotted path of the key, e.g. definition.name
	First Position
	At    Position
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: key %q declared again (first at %s)", e.At, e.Path, e.First)
}

// KeyError reports a mapping key that is not a plain scalar, such as a
// sequence or a mapping used as a key.
type KeyError struct {
	Path string // dotted path of the enclosing mapping
	At   Position
	Kind string
}

func (e *KeyError) Error() string {
	where := e.Path
	if where == "" {
		where = "top level"
	}
	return fmt.Sprintf("%s: %s key in %s; definition keys must be scalars", e.At, e.Kind, where)
}

// source is one decoded definition file: the value tree handed to the
// compiler plus the position of every mapping key, by dotted path.
type source struct {
	root      any
	positions map[string]Position
}

// readSource decodes the first YAML document of r.
func readSource(r io.Reader) (*source, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmpty
		}
		return nil, errors.Wrap(err, "parse definition")
	}
	src := &source{positions: map[string]Position{}}
	root, err := src.value(&doc, "")
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errEmpty
	}
	src.root = root
	return src, nil
}

// locate returns the position of path, falling back to its closest recorded
// parent. Compiled paths skip the type key of embedded objects, so a parent
// is the best available answer for them.
func (s *source) locate(path string) (Position, bool) {
	for p := path; p != ""; {
		if pos, ok := s.positions[p]; ok {
			return pos, true
		}
		i := strings.LastIndex(p, ".")
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return Position{}, false
}

func (s *source) value(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return s.value(n.Content[0], path)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nil
		}
		return s.value(n.Alias, path)
	case yaml.MappingNode:
		return s.mapping(n, path)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := s.value(c, joinKey(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "%s: decode %s", nodePos(n), path)
		}
		return v, nil
	}
	return nil, nil
}

func (s *source) mapping(n *yaml.Node, path string) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	seen := make(map[string]Position, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Tag == "!!merge" {
			return nil, &KeyError{Path: path, At: nodePos(k), Kind: keyKind(k)}
		}
		full := joinKey(path, k.Value)
		if first, dup := seen[k.Value]; dup {
			return nil, &DuplicateKeyError{Path: full, First: first, At: nodePos(k)}
		}
		seen[k.Value] = nodePos(k)
		if _, ok := s.positions[full]; !ok {
			s.positions[full] = nodePos(k)
		}
		val, err := s.value(v, full)
		if err != nil {
			return nil, err
		}
		out[k.Value] = val
	}
	return out, nil
}

func keyKind(k *yaml.Node) string {
	switch k.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	}
	return "merge"
}

func joinKey(base, key string) string {
	if base == "" {
		return key
	}
	if key == "" {
		return base
	}
	return base + "." + key
}
