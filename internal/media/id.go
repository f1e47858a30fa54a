package media

import "github.com/google/uuid"

// randomID issues an opaque media identifier. UUIDs keep ids unguessable and
// collision-free without any coordination.
func randomID() string {
	return uuid.NewString()
}
