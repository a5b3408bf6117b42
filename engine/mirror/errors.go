package mirror

import "errors"

var (
	// ErrNotAllocated is returned when an operation needs a device buffer and none has been allocated.
	ErrNotAllocated = errors.New("mirror buffer not allocated")

	// ErrMirrorDirty is returned when the host pool changed since the last upload.
	ErrMirrorDirty = errors.New("mirror is dirty, upload required")

	// ErrCapacityExceeded is returned by UploadAll when more particles are given than slots exist.
	ErrCapacityExceeded = errors.New("particle count exceeds mirror capacity")

	// ErrLiveCountMismatch is returned by DownloadAll when the destination length differs from the uploaded count.
	ErrLiveCountMismatch = errors.New("live count does not match mirror")

	// ErrBufferMapFailed is returned when the device buffer could not be mapped for reading.
	ErrBufferMapFailed = errors.New("failed to map device buffer")
)
