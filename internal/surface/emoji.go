package surface

// spriteClasses maps emoji asset ids to their sprite classes. The catalog may
// lag behind historical content; unknown ids degrade to an empty placeholder
// rather than failing a render.
var spriteClasses = map[string]string{
	"smile":    "emoji-sprite emoji-smile",
	"grin":     "emoji-sprite emoji-grin",
	"laugh":    "emoji-sprite emoji-laugh",
	"wink":     "emoji-sprite emoji-wink",
	"heart":    "emoji-sprite emoji-heart",
	"thumbsup": "emoji-sprite emoji-thumbsup",
	"clap":     "emoji-sprite emoji-clap",
	"cry":      "emoji-sprite emoji-cry",
	"angry":    "emoji-sprite emoji-angry",
	"sweat":    "emoji-sprite emoji-sweat",
	"facepalm": "emoji-sprite emoji-facepalm",
	"party":    "emoji-sprite emoji-party",
	"sun":      "emoji-sprite emoji-sun",
	"moon":     "emoji-sprite emoji-moon",
	"rain":     "emoji-sprite emoji-rain",
	"coffee":   "emoji-sprite emoji-coffee",
}

// SpriteClass resolves an emoji id to its sprite class, or "" when the
// catalog does not know the id.
func SpriteClass(id string) string {
	return spriteClasses[id]
}
