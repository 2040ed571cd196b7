package capture

import "errors"

// Errors surfaced by capture commands. The command loop catches all of
// them at the dispatch boundary, reports them to the operator and returns
// to the idle prompt; they never terminate the session.
var (
	// ErrDuplicateEntry means the identifier being saved is already
	// recorded in the session's index.
	ErrDuplicateEntry = errors.New("already saved")

	// ErrEmptyCapture means save was attempted with nothing captured.
	ErrEmptyCapture = errors.New("nothing captured")

	// ErrNoActiveTab means a command needed a tab but none are open.
	ErrNoActiveTab = errors.New("no open tab")

	// ErrNothingToUndo means undo was attempted with no prior save.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrVerificationMismatch means undo's content check failed: the
	// artifact on disk does not match the last index entry, so it was
	// left in place.
	ErrVerificationMismatch = errors.New("artifact does not match last index entry")

	// ErrArtifactCollision means the next numbered slot is already
	// occupied on disk and the operator did not supply a usable
	// replacement number.
	ErrArtifactCollision = errors.New("artifact number already in use")
)
