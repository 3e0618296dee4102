// SPDX-License-Identifier: MPL-2.0

// Package frontmatter parses and composes YAML frontmatter in markdown
// documents. A Doc is an immutable snapshot of (ordered metadata, body);
// field updates return a new Doc, so rebuilding a document is a pure
// function of the original mapping plus the additions.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissing indicates the document does not start with a YAML fence.
	ErrMissing = errors.New("missing frontmatter")

	// ErrUnclosed indicates the opening fence has no matching closing fence.
	ErrUnclosed = errors.New("unclosed frontmatter")
)

// Doc is a markdown document split into an ordered frontmatter mapping and
// a body. The zero value is a document with no frontmatter and an empty body.
type Doc struct {
	meta *yaml.Node // mapping node, nil when no frontmatter
	body string
}

// Parse splits content into frontmatter and body. When the content has no
// opening fence it returns a Doc whose body is the whole content together
// with ErrMissing; an opening fence without a closing one returns
// ErrUnclosed. YAML errors from the metadata block are returned as-is.
func Parse(content string) (Doc, error) {
	if !strings.HasPrefix(content, "---") {
		return Doc{body: content}, ErrMissing
	}

	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return Doc{body: content}, ErrUnclosed
	}

	metaText := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(metaText), &root); err != nil {
		return Doc{body: content}, fmt.Errorf("parse frontmatter: %w", err)
	}

	var mapping *yaml.Node
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.MappingNode {
		mapping = root.Content[0]
	}
	return Doc{meta: mapping, body: body}, nil
}

// Body returns the document body without the frontmatter block.
func (d Doc) Body() string { return d.body }

// Get returns the scalar value for key, or "" when the key is absent or the
// document carries no frontmatter.
func (d Doc) Get(key string) string {
	if d.meta == nil {
		return ""
	}
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		if d.meta.Content[i].Value == key {
			return d.meta.Content[i+1].Value
		}
	}
	return ""
}

// Has reports whether the document carries a frontmatter mapping.
func (d Doc) Has() bool { return d.meta != nil }

// WithField returns a copy of the document with key set to value. An
// existing key is overwritten in place to keep field order stable; a new
// key is appended at the end of the mapping. A document without
// frontmatter gains a mapping containing only the new field.
func (d Doc) WithField(key, value string) Doc {
	mapping := cloneNode(d.meta)
	if mapping == nil {
		mapping = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = scalarNode(value)
			return Doc{meta: mapping, body: d.body}
		}
	}
	mapping.Content = append(mapping.Content, scalarNode(key), scalarNode(value))
	return Doc{meta: mapping, body: d.body}
}

// Compose rebuilds the document as "---\n<frontmatter>\n---\n<body>".
// A document without frontmatter composes to its bare body.
func (d Doc) Compose() (string, error) {
	if d.meta == nil {
		return d.body, nil
	}
	out, err := yaml.Marshal(d.meta)
	if err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return "---\n" + strings.TrimRight(string(out), "\n") + "\n---\n" + d.body, nil
}

// Description returns the "description" field of a document, or "" when the
// content has no parseable frontmatter.
func Description(content string) string {
	doc, err := Parse(content)
	if err != nil && !doc.Has() {
		return ""
	}
	return doc.Get("description")
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Content = make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		out.Content[i] = cloneNode(c)
	}
	return &out
}
