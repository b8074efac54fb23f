package util

import (
	"context"
	"errors"
	"os"
	"sync"
)

// ErrChannelClosed is returned from Err() when a context returned from WithDone is closed after
// the provided channel is closed.
var ErrChannelClosed = errors.New("channel closed")

// ErrSignalReceived is returned from Err() when a context returned from WithSignal is closed
// after a signal was received.
var ErrSignalReceived = errors.New("signal received")

// WithDone wraps a signal channel with a context, and cancels the context when the channel is closed.
// When the context is Done, the ctx.Err() will either be ErrChannelClosed if the channel closed first,
// or the error from the underlying context (Canceled, DeadlineExceeded, etc).
func WithDone(parent context.Context, done <-chan struct{}) (context.Context, context.CancelFunc) {
	return withChannel(parent, done, ErrChannelClosed)
}

// WithSignal cancels the returned context when a signal arrives on sigChan. ctx.Err()
// is then ErrSignalReceived.
func WithSignal(parent context.Context, sigChan <-chan os.Signal) (context.Context, context.CancelFunc) {
	received := make(chan struct{})
	ctx, cancel := withChannel(parent, received, ErrSignalReceived)
	go func() {
		select {
		case <-sigChan:
			close(received)
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func withChannel(parent context.Context, done <-chan struct{}, cause error) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := &doneCtx{Context: ctx}
	go func() {
		select {
		case <-done:
			c.setErr(cause)
			cancel()
		case <-ctx.Done():
		}
	}()
	return c, cancel
}

type doneCtx struct {
	context.Context
	mu  sync.Mutex
	err error
}

func (c *doneCtx) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *doneCtx) Err() error {
	c.mu.Lock()
	err := c.err
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return c.Context.Err()
}
