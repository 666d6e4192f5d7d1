package adapter

import "github.com/roach88/listsync/internal/ir"

// UserInfoBoundsAnimation is the ir.UserInfo key holding an
// ir.BoundsAnimation (or *ir.BoundsAnimation) for the transition.
const UserInfoBoundsAnimation = "listsync.bounds_animation"

// Bridge animates a widget's bounds change around its batch update.
//
// Prepare is called before BeginUpdates with the change in total content
// height and returns an opaque token; Apply is called with that token after
// EndUpdates. The Adapter only uses a Bridge for transitions that update
// items in place without inserting, removing or moving any.
type Bridge interface {
	Prepare(w Widget, heightDelta int) any
	Apply(token any, anim ir.BoundsAnimation)
}

// boundsAnimation extracts the animation from info.
func boundsAnimation(info ir.UserInfo) (ir.BoundsAnimation, bool) {
	switch v := info[UserInfoBoundsAnimation].(type) {
	case ir.BoundsAnimation:
		return v, true
	case *ir.BoundsAnimation:
		if v != nil {
			return *v, true
		}
	}
	return ir.BoundsAnimation{}, false
}
