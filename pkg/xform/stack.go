package xform

import "errors"

// ErrStackUnderflow is returned by Pop when only the root frame remains.
var ErrStackUnderflow = errors.New("transform stack underflow")

// Stack is the nested coordinate-frame stack of one parse. It always holds
// at least the root frame, which starts as the identity. A Stack is not safe
// for concurrent use.
type Stack struct {
	frames []Transform
}

// NewStack returns a stack holding only the identity root frame.
func NewStack() *Stack {
	return &Stack{frames: []Transform{Identity()}}
}

// Current returns the transform in effect, the top of the stack.
func (s *Stack) Current() Transform {
	return s.frames[len(s.frames)-1]
}

// Apply composes x onto the current transform: top = top·x. The new
// transform acts in the current local frame.
func (s *Stack) Apply(x Transform) {
	top := len(s.frames) - 1
	s.frames[top] = s.frames[top].Mul(x)
}

// Set replaces the current transform outright, as the RIB Identity and
// Transform directives do.
func (s *Stack) Set(x Transform) {
	s.frames[len(s.frames)-1] = x
}

// Push opens a nested scope starting from a copy of the current transform.
func (s *Stack) Push() {
	s.frames = append(s.frames, s.Current())
}

// Pop closes the innermost scope. Popping the root frame is refused with
// ErrStackUnderflow and the stack is left unchanged.
func (s *Stack) Pop() error {
	if len(s.frames) == 1 {
		return ErrStackUnderflow
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Depth returns the number of open scopes above the root frame.
func (s *Stack) Depth() int {
	return len(s.frames) - 1
}

// Reset drops every scope and restores the identity root frame.
func (s *Stack) Reset() {
	s.frames = append(s.frames[:0], Identity())
}
