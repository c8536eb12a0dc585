package responder

import "strings"

// DefaultDisplayName is used when an authenticated user has no display name.
const DefaultDisplayName = "bạn"

// AuthContext describes who is talking to the bot. It is passed explicitly
// into every engine call; the engine never reads session state on its own.
type AuthContext struct {
	Authenticated bool
	DisplayName   string
}

// Anonymous returns the context of a visitor that is not logged in.
func Anonymous() AuthContext {
	return AuthContext{}
}

// Authenticated returns the context of a logged in user. A blank name is
// replaced by DefaultDisplayName.
func Authenticated(name string) AuthContext {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDisplayName
	}
	return AuthContext{Authenticated: true, DisplayName: name}
}

// Name returns the display name used in personalised replies, falling back
// to DefaultDisplayName when it is blank.
func (a AuthContext) Name() string {
	if name := strings.TrimSpace(a.DisplayName); name != "" {
		return name
	}
	return DefaultDisplayName
}

func (a AuthContext) String() string {
	if !a.Authenticated {
		return "anonymous"
	}
	return "authenticated(" + a.DisplayName + ")"
}
