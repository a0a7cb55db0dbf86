package payload

import (
	"errors"
	"fmt"
)

// Kind selects the size window applied to a decoded payload.
type Kind string

const (
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

var (
	ErrTooSmall = errors.New("payload too small")
	ErrTooLarge = errors.New("payload too large")
)

// Window is an inclusive byte-length range. Min 0 disables the lower bound.
type Window struct {
	Min int
	Max int
}

// SizeError describes a payload outside its window. It unwraps to ErrTooSmall or ErrTooLarge.
type SizeError struct {
	Kind   Kind
	Size   int
	Window Window
	cause  error
}

func (e *SizeError) Error() string {
	if e.Window.Min > 0 {
		return fmt.Sprintf("%s size must be between %d bytes and %d bytes", label(e.Kind), e.Window.Min, e.Window.Max)
	}
	return fmt.Sprintf("%s size must not exceed %d bytes", label(e.Kind), e.Window.Max)
}

func (e *SizeError) Unwrap() error { return e.cause }

func label(k Kind) string {
	switch k {
	case KindAudio:
		return "Audio"
	case KindImage:
		return "Image"
	default:
		return "Payload"
	}
}

// Guard holds the windows per payload kind.
type Guard struct {
	Audio Window
	Image Window
}

// Check returns nil when n fits the window configured for kind.
func (g Guard) Check(n int, kind Kind) error {
	w := g.Image
	if kind == KindAudio {
		w = g.Audio
	}
	switch {
	case w.Min > 0 && n < w.Min:
		return &SizeError{Kind: kind, Size: n, Window: w, cause: ErrTooSmall}
	case n > w.Max:
		return &SizeError{Kind: kind, Size: n, Window: w, cause: ErrTooLarge}
	}
	return nil
}
