package shadermount

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them; most are returned wrapped
// with additional context.
var (
	// ErrInvalidColorFormat is returned by Normalize for unparsable input.
	// Callers substitute a default color instead of propagating it.
	ErrInvalidColorFormat = errors.New("shadermount: invalid color format")

	// ErrUnknownUniform reports a uniform with no slot in the compiled program.
	// It is a warning: reconciliation skips the entry and continues.
	ErrUnknownUniform = errors.New("shadermount: unknown uniform")

	// ErrUniformType reports a value whose kind does not match its slot.
	ErrUniformType = errors.New("shadermount: uniform type mismatch")

	// ErrContextLost is reported by backends when the GPU context became
	// invalid. The instance tears down and recreates all resources.
	ErrContextLost = errors.New("shadermount: backend context lost")

	// ErrShaderCompile is matched by every *CompileError.
	ErrShaderCompile = errors.New("shadermount: shader compile failed")

	// ErrInstanceClosed is returned by operations on an unmounted instance.
	ErrInstanceClosed = errors.New("shadermount: instance is unmounted")

	// ErrNoDriver is returned when no backend driver is registered or given.
	ErrNoDriver = errors.New("shadermount: no backend driver")

	// ErrInvalidSchema is returned for malformed parameter schemas.
	ErrInvalidSchema = errors.New("shadermount: invalid schema")

	// ErrInvalidParam is returned when wrapper input does not match the schema.
	ErrInvalidParam = errors.New("shadermount: invalid parameter")
)

// CompileError carries the backend diagnostic for a program that failed to
// compile or link. An instance whose program fails renders nothing.
type CompileError struct {
	Backend BackendKind
	Shader  string
	Log     string
	Err     error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("shadermount: compile %q for %s", e.Shader, e.Backend)
	if e.Log != "" {
		msg += ": " + e.Log
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes every CompileError match ErrShaderCompile.
func (e *CompileError) Is(target error) bool { return target == ErrShaderCompile }

func (e *CompileError) Unwrap() error { return e.Err }

// UnknownUniformError names the uniform that has no program slot.
type UnknownUniformError struct {
	Name string
}

func (e *UnknownUniformError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownUniform, e.Name)
}

// Is makes every UnknownUniformError match ErrUnknownUniform.
func (e *UnknownUniformError) Is(target error) bool { return target == ErrUnknownUniform }
