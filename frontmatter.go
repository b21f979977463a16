package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

var errUnterminatedFrontMatter = errors.New("unterminated front matter")

// document is a text file split into a YAML front matter block and an opaque body.
type document struct {
	meta *yaml.Node // mapping node
	body string
}

func parseDocument(raw []byte) (*document, error) {
	header, body, err := splitFrontMatter(string(raw))
	if err != nil {
		return nil, err
	}

	doc := &document{meta: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, body: body}
	if strings.TrimSpace(header) == "" {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(header), &root); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if root.Kind == 0 {
		return doc, nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is not a mapping")
	}
	doc.meta = root.Content[0]
	return doc, nil
}

func splitFrontMatter(text string) (header, body string, err error) {
	firstEnd := strings.IndexByte(text, '\n')
	if firstEnd < 0 || strings.TrimRight(text[:firstEnd], "\r") != frontMatterDelim {
		return "", text, nil
	}

	start := firstEnd + 1
	for pos := start; pos <= len(text); {
		end := strings.IndexByte(text[pos:], '\n')
		line, next := text[pos:], len(text)
		if end >= 0 {
			line, next = text[pos:pos+end], pos+end+1
		}
		if strings.TrimRight(line, "\r") == frontMatterDelim {
			return text[start:pos], text[next:], nil
		}
		if end < 0 {
			break
		}
		pos = next
	}
	return "", "", errUnterminatedFrontMatter
}

// Set replaces the value of key, or appends the key when it is new.
func (d *document) Set(key string, value any) error {
	valueNode := &yaml.Node{}
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	for i := 0; i+1 < len(d.meta.Content); i += 2 {
		if d.meta.Content[i].Value == key {
			d.meta.Content[i+1] = valueNode
			return nil
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	d.meta.Content = append(d.meta.Content, keyNode, valueNode)
	return nil
}

func (d *document) Decode(v any) error {
	return d.meta.Decode(v)
}

func (d *document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	if len(d.meta.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d.meta); err != nil {
			return nil, fmt.Errorf("failed to encode front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}
	buf.WriteString(frontMatterDelim + "\n")
	buf.WriteString(d.body)
	return buf.Bytes(), nil
}
