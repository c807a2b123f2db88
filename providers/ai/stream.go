package ai

import (
	"iter"
	"strings"
	"sync/atomic"
)

// ChatStream is a lazy, forward-only sequence of text fragments produced by a
// Provider. It can be ranged over exactly once: a second call to Iter yields
// ErrStreamConsumed without contacting the vendor again.
//
// Breaking out of the range loop releases the underlying HTTP response. A
// non-nil error is always the last value yielded.
type ChatStream struct {
	iterator iter.Seq2[string, error]
	consumed atomic.Bool
}

// NewChatStream wraps a raw fragment iterator. The iterator should yield
// (fragment, nil) for each text delta and ("", err) once on failure.
func NewChatStream(iterator iter.Seq2[string, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewStaticStream returns a stream that yields fragments in order and then,
// if err is non-nil, fails with err.
func NewStaticStream(fragments []string, err error) *ChatStream {
	return NewChatStream(func(yield func(string, error) bool) {
		for _, fragment := range fragments {
			if !yield(fragment, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	})
}

// Iter returns the fragment sequence for use with range-over-func loops.
//
//	for fragment, err := range stream.Iter() {
//	    if err != nil { return err }
//	    fmt.Print(fragment)
//	}
func (stream *ChatStream) Iter() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !stream.consumed.CompareAndSwap(false, true) {
			yield("", ErrStreamConsumed)
			return
		}
		stream.iterator(yield)
	}
}

// Collect drains the stream and returns the concatenated text. On a
// mid-stream failure it returns the text received so far and the error.
func (stream *ChatStream) Collect() (string, error) {
	var builder strings.Builder
	for fragment, err := range stream.Iter() {
		if err != nil {
			return builder.String(), err
		}
		builder.WriteString(fragment)
	}
	return builder.String(), nil
}
