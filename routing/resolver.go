// Package routing computes the screen group a client belongs in from its
// sign-in state, resolved role, advisor registration and current location.
// The resolver keeps no state of its own: every call recomputes the target
// from the inputs and returns nothing when the current location already
// agrees, which is what prevents redirect loops.
package routing

import "github.com/Sahilattar8786/khidmah-mvp/models"

// Segment identifies the route group the client is currently inside.
type Segment string

const (
	SegmentNone  Segment = ""
	SegmentAuth  Segment = "auth"
	SegmentUser  Segment = "user"
	SegmentAalim Segment = "aalim"
)

// Route targets returned by Resolve.
const (
	TargetLogin      = "/(auth)/login"
	TargetSelectRole = "/(auth)/select-role"
	TargetUserHome   = "/(user)/home"
	TargetAalimHome  = "/(aalim)/home"
)

// State is the full input to one route evaluation. Role is the resolved role
// tag; resolution waits (and the default on timeout) happen in the role
// store before this point, so an unresolved role arrives here as RoleUser.
type State struct {
	SignedIn   bool
	Role       string
	Registered bool // advisor directory entry exists; only read for RoleAalim
	Segment    Segment
}

// Resolve returns the redirect target for the state, or "" when the current
// segment already agrees and no redirect should fire.
func Resolve(s State) string {
	if !s.SignedIn {
		// the index screen redirects itself; only kick out of the app groups
		if s.Segment == SegmentAuth || s.Segment == SegmentNone {
			return ""
		}
		return TargetLogin
	}

	if s.Role == models.RoleAalim {
		if !s.Registered {
			if s.Segment == SegmentAuth {
				return ""
			}
			return TargetSelectRole
		}
		if s.Segment == SegmentAalim || s.Segment == SegmentAuth {
			return ""
		}
		return TargetAalimHome
	}

	if s.Segment == SegmentUser || s.Segment == SegmentAuth {
		return ""
	}
	return TargetUserHome
}
