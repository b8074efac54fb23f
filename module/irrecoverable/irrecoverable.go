package irrecoverable

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
)

// Signaler sends the error out.
type Signaler struct {
	errChan chan error
}

func NewSignaler() (*Signaler, <-chan error) {
	errChan := make(chan error, 1)
	return &Signaler{errChan: errChan}, errChan
}

// Throw is a narrow drop-in replacement for panic, log.Fatal, log.Panic, etc
// anywhere there's something connected to the error channel. Only the first
// error thrown is delivered; the calling goroutine is always terminated.
func (s *Signaler) Throw(err error) {
	select {
	case s.errChan <- err:
	default:
	}
	runtime.Goexit()
}

// SignalerContext is a context.Context that can also signal irrecoverable errors.
type SignalerContext interface {
	context.Context
	Throw(err error) // delegates to the signaler
	sealed()         // private, to constrain builder to using WithSignaler
}

type signalerCtx struct {
	context.Context
	*Signaler
}

func (sc signalerCtx) sealed() {}

// WithSignaler is the One True Way of getting a SignalerContext.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errChan := NewSignaler()
	return &signalerCtx{parent, sig}, errChan
}

// Throw can be a drop-in replacement anywhere we have a context.Context likely
// to support irrecoverables. If the context cannot signal, the process is terminated.
func Throw(ctx context.Context, err error) {
	signalerAbleContext, ok := ctx.(SignalerContext)
	if ok {
		signalerAbleContext.Throw(err)
	}
	log.Error().Err(err).Msg("irrecoverable error signaler not found for context")
	fmt.Fprintf(os.Stderr, "unhandled irrecoverable error: %v\n", err)
	os.Exit(1)
}
