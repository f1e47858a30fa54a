package surface

import "github.com/starford/lauf/internal/content"

// MediaResolver turns a stored media id into a fetchable URL.
type MediaResolver func(id string) string

// Render reconstructs the editable surface for a persisted node sequence.
// Dumping the result without further edits reproduces the same sequence for
// text, break, and emoji nodes; image nodes come back with a possible leading
// synthetic break, which the dump rules require.
func Render(nodes []content.Node, resolve MediaResolver) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		switch n.Type {
		case content.TypeText:
			out = append(out, styledRun(n.Content, n.Style))
		case content.TypeBreak:
			out = append(out, LineBreak())
		case content.TypeEmoji:
			out = append(out, EmojiSpan(n.Content))
		case content.TypeImage:
			src := n.Content
			if resolve != nil {
				src = resolve(n.Content)
			}
			out = append(out, Img(src))
		}
	}
	return out
}

// RenderPreview reconstructs a read-only surface. Image nodes are excluded
// from the inline text flow entirely; callers feed content.MediaRefs to a
// separate gallery region instead.
func RenderPreview(nodes []content.Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		switch n.Type {
		case content.TypeText:
			out = append(out, styledRun(n.Content, n.Style))
		case content.TypeBreak:
			out = append(out, LineBreak())
		case content.TypeEmoji:
			out = append(out, EmojiSpan(n.Content))
		}
	}
	return out
}

// styledRun wraps a text run in the style wrapper elements matching the set
// bits, innermost first, in the fixed bold/italic/underline/mark/strike order.
func styledRun(text string, style content.Style) *Node {
	node := TextRun(text)
	wrappers := []struct {
		bit  content.Style
		kind Kind
	}{
		{content.Strikethrough, KindStrike},
		{content.Mark, KindMark},
		{content.Underline, KindUnderline},
		{content.Italic, KindItalic},
		{content.Bold, KindBold},
	}
	for _, w := range wrappers {
		if style.Has(w.bit) {
			node = Wrap(w.kind, node)
		}
	}
	return node
}
