// Package capture hands captured images to a decoding worker and returns the
// decoded otpauth URI to the caller that submitted them.
//
// Every request carries its own reply channel, so a new capture never
// replaces one that is still waiting to be decoded.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpkeeper/internal/logging"
)

var (
	// ErrNoCode is returned when every decoder failed to find content.
	ErrNoCode = errors.New("no otpauth content found")
	// ErrStopped is returned for requests submitted after the worker exited.
	ErrStopped = errors.New("capture worker stopped")
)

// Decoder extracts an otpauth URI from raw image (or text) bytes.
type Decoder interface {
	Decode(ctx context.Context, img []byte) (string, error)
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc func(ctx context.Context, img []byte) (string, error)

func (f DecoderFunc) Decode(ctx context.Context, img []byte) (string, error) {
	return f(ctx, img)
}

// TextDecoder finds the first otpauth:// URI in the input. It serves inputs
// already decoded by an external QR reader.
var TextDecoder = DecoderFunc(func(_ context.Context, img []byte) (string, error) {
	i := bytes.Index(img, []byte("otpauth://"))
	if i < 0 {
		return "", ErrNoCode
	}
	rest := img[i:]
	if end := bytes.IndexAny(rest, " \t\r\n\"'<>"); end >= 0 {
		rest = rest[:end]
	}
	return string(rest), nil
})

type result struct {
	uri string
	err error
}

type request struct {
	img   []byte
	reply chan result
}

// Worker decodes submitted images one at a time.
type Worker struct {
	decoders []Decoder
	reqs     chan request
	done     chan struct{}
	log      logging.Logger
}

// NewWorker returns a worker that tries decoders in order until one succeeds.
func NewWorker(log logging.Logger, decoders ...Decoder) *Worker {
	return &Worker{
		decoders: decoders,
		reqs:     make(chan request),
		done:     make(chan struct{}),
		log:      log,
	}
}

// Run serves requests until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.reqs:
			uri, err := w.decode(ctx, req.img)
			req.reply <- result{uri: uri, err: err}
		}
	}
}

func (w *Worker) decode(ctx context.Context, img []byte) (string, error) {
	lastErr := ErrNoCode
	for i, d := range w.decoders {
		uri, err := d.Decode(ctx, img)
		if err == nil && uri != "" {
			w.log.Debug(ctx, "capture decoded", "decoder", i, "bytes", len(img))
			return uri, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	w.log.Debug(ctx, "capture not decoded", "decoders", len(w.decoders), "error", lastErr)
	if errors.Is(lastErr, ErrNoCode) {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: %w", ErrNoCode, lastErr)
}

// Decode submits img and waits for the worker's answer.
func (w *Worker) Decode(ctx context.Context, img []byte) (string, error) {
	req := request{img: img, reply: make(chan result, 1)}

	select {
	case w.reqs <- req:
	case <-w.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.uri, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
