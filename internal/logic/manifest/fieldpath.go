package manifest

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	lineMessage  = regexp.MustCompile("^line (\\d+): (.*)$")
	unknownField = regexp.MustCompile("^field (\\S+) not found in type")
	badValue     = regexp.MustCompile("^cannot unmarshal \\S+ `([^`]*)`")
)

// fieldRef locates one key or value of a decoded document.
type fieldRef struct {
	line  int
	path  string
	key   string
	value string
	leaf  bool
}

// fieldIndex maps decoder messages, which only carry a line number, back to
// the field path they are about.
type fieldIndex []fieldRef

func indexFields(node *yaml.Node) fieldIndex {
	return collectFields(node, "", nil)
}

func collectFields(node *yaml.Node, path string, refs fieldIndex) fieldIndex {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, c := range node.Content {
			refs = collectFields(c, path, refs)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			p := k.Value
			if path != "" {
				p = path + "." + k.Value
			}

			refs = append(refs, fieldRef{line: k.Line, path: p, key: k.Value})
			refs = collectValue(v, p, refs)
		}
	case yaml.SequenceNode:
		for i, c := range node.Content {
			refs = collectValue(c, path+"["+strconv.Itoa(i)+"]", refs)
		}
	}

	return refs
}

func collectValue(node *yaml.Node, path string, refs fieldIndex) fieldIndex {
	if node.Kind == yaml.ScalarNode || node.Kind == yaml.AliasNode {
		return append(refs, fieldRef{line: node.Line, path: path, value: node.Value, leaf: true})
	}

	refs = append(refs, fieldRef{line: node.Line, path: path})

	return collectFields(node, path, refs)
}

// locate splits a decoder message into the field path and the reason.
func (ix fieldIndex) locate(msg string) (string, string) {
	m := lineMessage.FindStringSubmatch(msg)
	if m == nil {
		return "", msg
	}

	line, _ := strconv.Atoi(m[1])
	reason := m[2]

	var candidates []fieldRef

	for _, ref := range ix {
		if ref.line == line {
			candidates = append(candidates, ref)
		}
	}

	if len(candidates) == 0 {
		return "", msg
	}

	if f := unknownField.FindStringSubmatch(reason); f != nil {
		for _, ref := range candidates {
			if ref.key == f[1] {
				return ref.path, "unknown field"
			}
		}
	}

	if v := badValue.FindStringSubmatch(reason); v != nil {
		for _, ref := range candidates {
			if ref.leaf && valueMatches(ref.value, v[1]) {
				return ref.path, reason
			}
		}
	}

	// a mapping or sequence where a scalar belongs starts on the reported line
	for _, ref := range candidates {
		if ref.key == "" {
			return ref.path, reason
		}
	}

	return candidates[0].path, reason
}

// valueMatches compares a node value with its possibly shortened form in a
// decoder message.
func valueMatches(value, quoted string) bool {
	if prefix, ok := strings.CutSuffix(quoted, "..."); ok {
		return len(value) > len(quoted)-3 && strings.HasPrefix(value, prefix)
	}

	return value == quoted
}
