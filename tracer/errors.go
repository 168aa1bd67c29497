package tracer

import "errors"

var (
	ErrSceneNotDefined  = errors.New("tracer: no scene defined")
	ErrCameraNotDefined = errors.New("tracer: no camera defined")
	ErrInterrupted      = errors.New("tracer: interrupted while rendering")
	ErrInvalidFrameDims = errors.New("tracer: frame dimensions must be positive")
)
