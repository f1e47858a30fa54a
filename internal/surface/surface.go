// Package surface models the editable rich-text surface as an explicit tree
// and converts it to and from the storage node sequence. The tree is built by
// the presentation layer with the node kind decided once at construction, so
// the conversion never inspects markup strings or ambient rendering state.
package surface

import "strings"

// Kind classifies a surface node. KindText is the only non-element kind; all
// others correspond to the fixed set of element shapes the editor produces.
type Kind int

// Surface node kinds.
const (
	KindText        Kind = iota // literal text run
	KindBreak                   // explicit line break
	KindImage                   // uploaded image placeholder
	KindEmoji                   // inline emoji widget, a leaf
	KindBold                    // inline style wrappers
	KindItalic
	KindUnderline
	KindMark
	KindStrike
	KindSpan        // generic inline container with no tag meaning
	KindBlock       // block-level paragraph/divider container
	KindUnsupported // element outside the editor's vocabulary
)

// TextLook carries the resolved visual attributes of an element as computed
// by the presentation layer. Weight 0 means the element does not resolve a
// weight of its own (pure inheritance).
type TextLook struct {
	Weight        int
	Italic        bool
	Underline     bool
	Strikethrough bool
}

// Node is one node of the editable surface tree.
type Node struct {
	Kind     Kind
	Tag      string // original markup tag, for error reporting
	Text     string // KindText: literal run, kept untrimmed
	Src      string // KindImage: fetchable URL
	EmojiID  string // KindEmoji
	Sprite   string // KindEmoji: sprite class, empty when the catalog lacks the id
	Editable bool
	Look     TextLook
	Children []*Node
}

// TextRun builds a literal text node.
func TextRun(text string) *Node {
	return &Node{Kind: KindText, Text: text, Editable: true}
}

// LineBreak builds an explicit line break element.
func LineBreak() *Node {
	return &Node{Kind: KindBreak, Tag: "br"}
}

// Img builds an image placeholder for the given fetchable URL. Image
// placeholders are never editable or draggable.
func Img(src string) *Node {
	return &Node{Kind: KindImage, Tag: "img", Src: src}
}

// EmojiSpan builds an inline emoji widget. The widget is a leaf: its children
// are never walked.
func EmojiSpan(id string) *Node {
	return &Node{Kind: KindEmoji, Tag: "span", EmojiID: id, Sprite: SpriteClass(id)}
}

// Wrap builds an inline style wrapper of the given kind around children.
func Wrap(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Tag: tagFor(kind), Editable: true, Children: children}
}

// Span builds a generic inline container.
func Span(children ...*Node) *Node {
	return &Node{Kind: KindSpan, Tag: "span", Editable: true, Children: children}
}

// Block builds a block-level container.
func Block(children ...*Node) *Node {
	return &Node{Kind: KindBlock, Tag: "div", Editable: true, Children: children}
}

// Element builds a node from a raw markup tag, classifying it once. Tags
// outside the editor's vocabulary yield KindUnsupported so the dump can
// surface them loudly instead of dropping content.
func Element(tag string, children ...*Node) *Node {
	kind := KindUnsupported
	switch strings.ToLower(tag) {
	case "br":
		kind = KindBreak
	case "img":
		kind = KindImage
	case "span":
		kind = KindSpan
	case "div":
		kind = KindBlock
	case "b", "strong":
		kind = KindBold
	case "i", "em":
		kind = KindItalic
	case "u":
		kind = KindUnderline
	case "mark":
		kind = KindMark
	case "strike", "s", "del":
		kind = KindStrike
	}
	return &Node{Kind: kind, Tag: strings.ToLower(tag), Editable: true, Children: children}
}

// WithLook attaches resolved visual attributes and returns the node.
func (n *Node) WithLook(look TextLook) *Node {
	n.Look = look
	return n
}

func tagFor(kind Kind) string {
	switch kind {
	case KindBold:
		return "b"
	case KindItalic:
		return "i"
	case KindUnderline:
		return "u"
	case KindMark:
		return "mark"
	case KindStrike:
		return "strike"
	}
	return "span"
}
