package render

import (
	"strings"

	"github.com/cavalo-mORTO/kore-mustach/internal/tagexpr"
)

// Spec.md §1 leaves "the underlying Mustache lexer" as an assumed-
// provided collaborator: a generic driver that turns template text
// into start/enter/next/leave/get/partial/emit calls. No such library
// ships in this ecosystem's dependency surface, so this file is that
// driver: a small tokenizer plus a parse-once-render-many node tree,
// grounded directly on kore_mustach.c's per-tag dispatch (the '#' '^'
// '/' '>' '!' '&' '{' sigils below are exactly its switch on the byte
// following "{{"). Standalone-line whitespace stripping is out of
// scope (spec.md §1 non-goals) — tags are recognized purely by their
// "{{" / "}}" delimiters, with no trailing-newline trimming.
type nodeKind int

const (
	nodeText nodeKind = iota
	nodeVar
	nodeSection
	nodeInverted
	nodePartial
)

type node struct {
	kind     nodeKind
	text     string
	tag      string
	escape   bool
	children []node
}

// Node is the exported name for a parsed template node, letting
// callers outside this package (the root mustach.Template type) hold
// onto a parse result without re-parsing.
type Node = node

// Parse tokenizes template into a tree of nodes ready for repeated
// Eval calls against independent States.
func Parse(template string) ([]node, error) {
	nodes, rest, err := parseUntil(template, "")
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, CodeBadClose
	}
	return nodes, nil
}

// parseUntil parses nodes until a closing tag matching name is found
// (or end of input, when name == ""), returning whatever text remains
// after that close tag.
func parseUntil(s string, name string) (nodes []node, remainder string, err error) {
	for {
		idx := strings.Index(s, "{{")
		if idx < 0 {
			if name != "" {
				return nil, "", CodeUnexpectedEnd
			}
			if s != "" {
				nodes = append(nodes, node{kind: nodeText, text: s})
			}
			return nodes, "", nil
		}
		if idx > 0 {
			nodes = append(nodes, node{kind: nodeText, text: s[:idx]})
		}
		s = s[idx+2:]

		var sigil byte
		if len(s) > 0 {
			sigil = s[0]
		}

		bodyStart := 0
		closeLen := 2
		var end int
		if sigil == '{' {
			end = strings.Index(s, "}}}")
			if end < 0 {
				if strings.Contains(s, "}}") {
					return nil, "", CodeBadSeparators
				}
				return nil, "", CodeUnexpectedEnd
			}
			bodyStart, closeLen = 1, 3
		} else {
			end = strings.Index(s, "}}")
			if end < 0 {
				return nil, "", CodeUnexpectedEnd
			}
			switch sigil {
			case '#', '^', '/', '>', '!', '&':
				bodyStart = 1
			}
		}

		body := strings.TrimSpace(s[bodyStart:end])
		s = s[end+closeLen:]

		if sigil == '!' {
			continue
		}
		if body == "" {
			return nil, "", CodeEmptyTag
		}
		if len(body) > tagexpr.MaxTagLength {
			return nil, "", CodeTagTooLong
		}

		switch sigil {
		case '>':
			nodes = append(nodes, node{kind: nodePartial, tag: body})

		case '#', '^':
			kind := nodeSection
			if sigil == '^' {
				kind = nodeInverted
			}
			children, rest, err := parseUntil(s, body)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, node{kind: kind, tag: body, children: children})
			s = rest

		case '/':
			if body != name {
				return nil, "", CodeBadClose
			}
			return nodes, s, nil

		case '{', '&':
			nodes = append(nodes, node{kind: nodeVar, tag: body, escape: false})

		default:
			nodes = append(nodes, node{kind: nodeVar, tag: body, escape: true})
		}
	}
}

// Eval drives s through nodes, the render loop proper: for each
// section node it calls Enter once, then Next/body/Next... until
// iteration is exhausted, then Leave; for var/partial nodes it calls
// Get/Partial and Emits the result.
func Eval(nodes []node, s *State) error {
	for _, n := range nodes {
		if err := evalNode(n, s); err != nil {
			return err
		}
	}
	return nil
}

func evalNode(n node, s *State) error {
	switch n.kind {
	case nodeText:
		s.Emit([]byte(n.text), false)
		return nil

	case nodeVar:
		text, err := s.Get(n.tag)
		if err != nil {
			return err
		}
		s.Emit([]byte(text), n.escape)
		return nil

	case nodePartial:
		text, release, err := s.Partial(n.tag)
		if err != nil {
			return err
		}
		s.Emit([]byte(text), false)
		release()
		return nil

	case nodeSection:
		ok, err := s.Enter(n.tag)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for {
			if err := Eval(n.children, s); err != nil {
				return err
			}
			if !s.Next() {
				break
			}
		}
		return s.Leave()

	case nodeInverted:
		ok, err := s.Enter(n.tag)
		if err != nil {
			return err
		}
		if ok {
			return s.Leave()
		}
		return Eval(n.children, s)

	default:
		return nil
	}
}
