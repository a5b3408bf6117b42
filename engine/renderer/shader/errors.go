package shader

import "errors"

var (
	// ErrShaderCompileFailed is returned when a stage fails pre-processing, reflection or WGSL validation.
	ErrShaderCompileFailed = errors.New("shader compile failed")

	// ErrShaderLinkFailed is returned when two stages cannot form a render program, or when the
	// device rejects the pipeline built from them.
	ErrShaderLinkFailed = errors.New("shader link failed")

	// ErrShaderNoStageMarker is returned when a combined shader file has code before the first
	// "#shader" marker or names an unknown stage.
	ErrShaderNoStageMarker = errors.New("shader source has no stage marker")
)
