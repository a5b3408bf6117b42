package particle

import "errors"

var (
	// ErrPoolExhausted is returned by Create when every id up to the max capacity is live.
	ErrPoolExhausted = errors.New("no free slots available")

	// ErrPoolResizeBelowLiveCount is returned by Resize when the new capacity is smaller than the live count.
	ErrPoolResizeBelowLiveCount = errors.New("resize below live particle count")

	// ErrPoolResizeOrphansLiveID is returned by Resize when shrinking would leave a live id outside [0, newMax).
	ErrPoolResizeOrphansLiveID = errors.New("resize would orphan a live particle id")

	// ErrDestroyUnknownID is returned by Destroy for an id that is not live.
	ErrDestroyUnknownID = errors.New("particle id not found")
)
