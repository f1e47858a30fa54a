package content

import (
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NodeType discriminates the node variants.
type NodeType string

// Node variants. These values are the wire discriminator and must not change.
const (
	TypeText  NodeType = "text"
	TypeBreak NodeType = "break"
	TypeEmoji NodeType = "emoji"
	TypeImage NodeType = "image"
)

// Node is one unit of entry body content. The Content field carries the text
// run for TypeText, the emoji id for TypeEmoji, and the media id for
// TypeImage; a break carries no payload. Image nodes store the bare media id,
// never a full URL.
type Node struct {
	Type    NodeType `json:"type"`
	Content string   `json:"content,omitempty"`
	Style   Style    `json:"style,omitempty"`
}

// Text builds a text node with the resolved style.
func Text(text string, style Style) Node {
	return Node{Type: TypeText, Content: text, Style: style}
}

// Break builds a line-division node.
func Break() Node {
	return Node{Type: TypeBreak}
}

// Emoji builds an emoji node for the given asset id.
func Emoji(id string) Node {
	return Node{Type: TypeEmoji, Content: id}
}

// Image builds an image node referencing an uploaded media id.
func Image(mediaID string) Node {
	return Node{Type: TypeImage, Content: mediaID}
}

// Validate checks the node against the wire contract. Style is not bounded
// above: unknown bits are legal and preserved.
func (n Node) Validate() error {
	if err := validation.Validate(string(n.Type),
		validation.Required,
		validation.In(string(TypeText), string(TypeBreak), string(TypeEmoji), string(TypeImage)),
	); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	switch n.Type {
	case TypeText:
		if strings.TrimSpace(n.Content) == "" {
			return fmt.Errorf("text node: content is empty")
		}
	case TypeEmoji:
		if n.Content == "" {
			return fmt.Errorf("emoji node: id is empty")
		}
	case TypeImage:
		if n.Content == "" {
			return fmt.Errorf("image node: media id is empty")
		}
		if strings.ContainsAny(n.Content, "/\\") {
			return fmt.Errorf("image node: media id must be a bare identifier, got %q", n.Content)
		}
	}
	if n.Style < 0 {
		return fmt.Errorf("style: negative value %d", n.Style)
	}
	return nil
}

// ValidateAll validates every node in the sequence, reporting the index of
// the first failure.
func ValidateAll(nodes []Node) error {
	for i, n := range nodes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
	}
	return nil
}

// MediaRefs returns the deduplicated media ids referenced by image nodes, in
// sorted order. Emoji ids are excluded: they reference bundled assets rather
// than deletable uploads.
func MediaRefs(nodes []Node) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range nodes {
		if n.Type != TypeImage || n.Content == "" {
			continue
		}
		if _, dup := seen[n.Content]; dup {
			continue
		}
		seen[n.Content] = struct{}{}
		out = append(out, n.Content)
	}
	sort.Strings(out)
	return out
}

// PlainText projects the sequence to searchable text: text runs joined with
// breaks as newlines. Emoji and image nodes contribute nothing.
func PlainText(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case TypeText:
			b.WriteString(n.Content)
		case TypeBreak:
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Words counts whitespace-separated words across text nodes.
func Words(nodes []Node) int {
	return len(strings.Fields(PlainText(nodes)))
}
