package mcpserver

// EntryFormatContract describes the canonical entry content format that
// LLM consumers must follow when composing entry bodies.
const EntryFormatContract = `# Lauf Entry Content Contract

An entry body is a JSON array of content nodes in reading order. Each node is
one of four kinds, discriminated by the "type" field.

## Node kinds

` + "```" + `json
{"type": "text",  "content": "Hello world", "style": 3}
{"type": "break"}
{"type": "emoji", "content": "smile"}
{"type": "image", "content": "1f3a9c1e-7b2d-4f04-9d7e-1c7d0b7f2a55.png"}
` + "```" + `

- **text** — content is the literal run text (non-empty after trimming);
  style is a bitmask (see below), omitted when 0.
- **break** — a forced line division; carries no payload.
- **emoji** — content is an opaque emoji id resolving to a bundled sprite.
- **image** — content is a bare media id issued by the upload_media tool,
  never a full URL and never a path.

## Style bitmask

| Bit | Value | Meaning        |
|-----|-------|----------------|
| 0   | 1     | bold           |
| 1   | 2     | italic         |
| 2   | 4     | underline      |
| 3   | 8     | mark/highlight |
| 4   | 16    | strikethrough  |

Styles combine by addition: bold italic text carries style 3. Unknown higher
bits are preserved by the server but have no visual meaning.

## Rules

1. Node order is reading order. Adjacent text nodes are NOT merged.
2. A break node separates lines; do not embed "\n" inside text content.
3. Image ids come only from upload_media; emoji ids reference bundled assets
   and are never uploaded or deleted.
4. Whitespace-only text nodes are dropped; do not emit them.

## Example

` + "```" + `json
[
  {"type": "text", "content": "Rainy day", "style": 1},
  {"type": "break"},
  {"type": "text", "content": "Walked to the harbor with "},
  {"type": "emoji", "content": "umbrella"},
  {"type": "break"},
  {"type": "image", "content": "9a1b2c3d-4e5f-4a6b-8c7d-0e1f2a3b4c5d.jpg"}
]
` + "```" + `
`
