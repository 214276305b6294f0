package core

import "errors"

var (
	// ErrStyleNotFound is returned when a biography style key is not registered.
	ErrStyleNotFound = errors.New("未找到指定的传记风格")

	// ErrUnknownStage is returned for a stage outside the fixed enumeration.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrInvalidCatalog wraps every question bank validation failure.
	ErrInvalidCatalog = errors.New("invalid question catalog")

	// ErrLowConfidence means a transcript came back below the confidence
	// threshold and the user should record again.
	ErrLowConfidence = errors.New("speech confidence too low, please record again")

	// ErrSpeechUnavailable is returned when no capture provider can be used.
	ErrSpeechUnavailable = errors.New("speech capture unavailable")

	// ErrCaptureInProgress is returned when a capture is started while another
	// one is still running.
	ErrCaptureInProgress = errors.New("a speech capture is already in progress")
)
