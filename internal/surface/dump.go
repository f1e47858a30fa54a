package surface

import (
	"errors"
	"fmt"
	"strings"

	"github.com/starford/lauf/internal/content"
)

// Dump errors. Both are terminal for the whole operation: no partial node
// sequence is ever returned alongside them.
var (
	ErrUnsupportedMarkup   = errors.New("surface: unsupported markup")
	ErrUnsupportedNodeKind = errors.New("surface: unsupported node kind")
)

// Dump walks the surface tree depth-first in pre-order and produces the
// storage node sequence. Style is threaded down through recursive calls and
// never leaks back to siblings. Adjacent text runs are not merged: each
// surface text node becomes its own storage node.
func Dump(roots []*Node) ([]content.Node, error) {
	var out []content.Node
	for _, n := range roots {
		if err := dump(n, content.Normal, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func dump(n *Node, style content.Style, out *[]content.Node) error {
	if n.Kind == KindText {
		// Whitespace-only runs are editing noise, dropped silently. Kept runs
		// carry their original untrimmed text.
		if strings.TrimSpace(n.Text) != "" {
			*out = append(*out, content.Text(n.Text, style))
		}
		return nil
	}
	if n.Kind < KindText || n.Kind > KindUnsupported {
		return fmt.Errorf("%w: %d", ErrUnsupportedNodeKind, n.Kind)
	}

	// Fold the element's own resolved look into the inherited style. An
	// explicit non-bold weight wins over an inherited bold bit.
	own, unbold := n.Look.styleBits()
	style = style.Combine(own)
	if unbold {
		style = style.Clear(content.Bold)
	}

	switch n.Kind {
	case KindImage:
		if len(*out) == 0 {
			// A leading image must not be the very first node.
			*out = append(*out, content.Break())
		}
		*out = append(*out, content.Image(trailingSegment(n.Src)))

	case KindBreak:
		*out = append(*out, content.Break())

	case KindEmoji:
		// Leaf widget: children are never walked.
		*out = append(*out, content.Emoji(n.EmojiID))

	case KindBold:
		return dumpChildren(n, style.Combine(content.Bold), out)
	case KindItalic:
		return dumpChildren(n, style.Combine(content.Italic), out)
	case KindUnderline:
		return dumpChildren(n, style.Combine(content.Underline), out)
	case KindMark:
		return dumpChildren(n, style.Combine(content.Mark), out)
	case KindStrike:
		return dumpChildren(n, style.Combine(content.Strikethrough), out)

	case KindSpan:
		return dumpChildren(n, style, out)

	case KindBlock:
		// A block boundary forces a line division before new content, but
		// never doubles up after another non-text node.
		if k := len(*out); k > 0 && (*out)[k-1].Type == content.TypeText {
			*out = append(*out, content.Break())
		}
		if err := dumpChildren(n, style, out); err != nil {
			return err
		}
		*out = append(*out, content.Break())

	case KindUnsupported:
		return fmt.Errorf("%w: <%s>", ErrUnsupportedMarkup, n.Tag)
	}
	return nil
}

func dumpChildren(n *Node, style content.Style, out *[]content.Node) error {
	for _, c := range n.Children {
		if err := dump(c, style, out); err != nil {
			return err
		}
	}
	return nil
}

// styleBits converts the resolved look into style bits plus an un-bold flag.
// A weight of at most 400 means the element explicitly resolves non-bold and
// must override any inherited bold bit.
func (l TextLook) styleBits() (content.Style, bool) {
	s := content.Normal
	if l.Weight >= 500 {
		s = s.Combine(content.Bold)
	}
	if l.Italic {
		s = s.Combine(content.Italic)
	}
	if l.Underline {
		s = s.Combine(content.Underline)
	}
	if l.Strikethrough {
		s = s.Combine(content.Strikethrough)
	}
	unbold := l.Weight > 0 && l.Weight <= 400
	return s, unbold
}

// trailingSegment strips everything up to and including the last slash, so a
// stored image reference is always the bare media id.
func trailingSegment(src string) string {
	if i := strings.LastIndexByte(src, '/'); i >= 0 {
		return src[i+1:]
	}
	return src
}
