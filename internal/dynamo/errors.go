package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for parameter setup and evaluation.
var (
	// ErrConfig indicates a missing or mistyped configuration key.
	ErrConfig = errors.New("dynamo: invalid configuration")

	// ErrShapeUnsupported indicates a pair potential with no geometric shape was asked for one.
	ErrShapeUnsupported = errors.New("dynamo: shape definition not supported for this pair potential")

	// ErrUnknownFamily indicates a potential family name that is not compiled in.
	ErrUnknownFamily = errors.New("dynamo: unknown potential family")

	// ErrUnknownType indicates a particle type name missing from the type list.
	ErrUnknownType = errors.New("dynamo: unknown particle type")

	// ErrArenaExhausted indicates a group's shared memory cannot hold the staged parameters.
	ErrArenaExhausted = errors.New("dynamo: shared memory exhausted")

	// ErrContextCanceled indicates the force computation was interrupted.
	ErrContextCanceled = errors.New("dynamo: computation canceled by context")
)

// ConfigError wraps ErrConfig with the family and key that failed.
type ConfigError struct {
	Family string
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Family, e.Reason)
	}
	return fmt.Sprintf("%s: %s.%s: %s", ErrConfig, e.Family, e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// ShapeError wraps ErrShapeUnsupported with the potential name.
type ShapeError struct {
	Potential string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrShapeUnsupported, e.Potential)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeUnsupported
}
