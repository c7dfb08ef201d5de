package prompt

import (
	"fmt"
	"strings"

	"github.com/riskforge/riskforge/pkg/datapath"
	"github.com/riskforge/riskforge/pkg/jsonutil"
)

// Template is a parsed prompt template. Parsing happens once when the
// prompt is registered; evaluation walks the node tree against a data
// package without re-scanning the source.
//
// Syntax:
//
//	{{path.to.field}}          variable (objects are JSON-serialized)
//	{{this}}                   current element inside an each block
//	{{#each path}}...{{/each}} iterate an array
//	{{#if path}}...{{/if}}     include block when path is non-empty
type Template struct {
	src   string
	nodes []node
}

type node interface {
	render(sb *strings.Builder, scope *scope)
}

// scope carries the current element (inside each blocks) plus the root
// package. Paths resolve against the element first, then the root.
type scope struct {
	root    any
	current any
	inEach  bool
}

func (s *scope) lookup(path string) (any, bool) {
	if s.inEach {
		if path == "this" {
			return s.current, true
		}
		if v, ok := datapath.Resolve(s.current, path); ok {
			return v, true
		}
	}
	return datapath.Resolve(s.root, path)
}

type literalNode struct{ text string }

func (n literalNode) render(sb *strings.Builder, _ *scope) {
	sb.WriteString(n.text)
}

type variableNode struct{ path string }

func (n variableNode) render(sb *strings.Builder, sc *scope) {
	v, ok := sc.lookup(n.path)
	if !ok || v == nil {
		return
	}
	sb.WriteString(stringify(v))
}

type eachNode struct {
	path string
	body []node
}

func (n eachNode) render(sb *strings.Builder, sc *scope) {
	v, ok := sc.lookup(n.path)
	if !ok {
		return
	}
	elems, ok := datapath.Elements(v)
	if !ok {
		return
	}
	for _, elem := range elems {
		inner := &scope{root: sc.root, current: elem, inEach: true}
		for _, child := range n.body {
			child.render(sb, inner)
		}
	}
}

type ifNode struct {
	path string
	body []node
}

func (n ifNode) render(sb *strings.Builder, sc *scope) {
	v, ok := sc.lookup(n.path)
	if !ok || datapath.IsEmpty(v) {
		return
	}
	for _, child := range n.body {
		child.render(sb, sc)
	}
}

// stringify renders a resolved value for interpolation. Scalars print
// naturally; composite values are JSON-serialized.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprintf("%v", t)
	default:
		data, err := jsonutil.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// ParseTemplate compiles src into a Template. It fails on unbalanced
// block tags so malformed prompt files surface at load time, not
// mid-generation.
func ParseTemplate(src string) (*Template, error) {
	p := &parser{src: src}
	nodes, err := p.parseUntil("")
	if err != nil {
		return nil, fmt.Errorf("prompt: parse template: %w", err)
	}
	return &Template{src: src, nodes: nodes}, nil
}

// Render evaluates the template against data.
func (t *Template) Render(data any) string {
	var sb strings.Builder
	sc := &scope{root: data}
	for _, n := range t.nodes {
		n.render(&sb, sc)
	}
	return sb.String()
}

// Source returns the original template text.
func (t *Template) Source() string { return t.src }

type parser struct {
	src string
	pos int
}

// parseUntil consumes nodes until the closing tag named by until
// ("each" or "if") or end of input when until is empty.
func (p *parser) parseUntil(until string) ([]node, error) {
	var nodes []node
	for p.pos < len(p.src) {
		open := strings.Index(p.src[p.pos:], "{{")
		if open < 0 {
			nodes = append(nodes, literalNode{text: p.src[p.pos:]})
			p.pos = len(p.src)
			break
		}
		if open > 0 {
			nodes = append(nodes, literalNode{text: p.src[p.pos : p.pos+open]})
		}
		p.pos += open
		end := strings.Index(p.src[p.pos:], "}}")
		if end < 0 {
			return nil, fmt.Errorf("unclosed tag at offset %d", p.pos)
		}
		tag := strings.TrimSpace(p.src[p.pos+2 : p.pos+end])
		p.pos += end + 2

		switch {
		case strings.HasPrefix(tag, "#each "):
			path := strings.TrimSpace(strings.TrimPrefix(tag, "#each "))
			body, err := p.parseUntil("each")
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, eachNode{path: path, body: body})
		case strings.HasPrefix(tag, "#if "):
			path := strings.TrimSpace(strings.TrimPrefix(tag, "#if "))
			body, err := p.parseUntil("if")
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, ifNode{path: path, body: body})
		case strings.HasPrefix(tag, "/"):
			name := strings.TrimPrefix(tag, "/")
			if name != until {
				return nil, fmt.Errorf("unexpected {{/%s}}", name)
			}
			return nodes, nil
		case tag == "":
			return nil, fmt.Errorf("empty tag at offset %d", p.pos)
		default:
			nodes = append(nodes, variableNode{path: tag})
		}
	}
	if until != "" {
		return nil, fmt.Errorf("missing {{/%s}}", until)
	}
	return nodes, nil
}
