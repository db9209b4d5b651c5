package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/muurk/insteon/internal/logging"
)

// DefaultReadChunkSize is the read size used when none is configured
const DefaultReadChunkSize = 64

// Reader runs the receive loop for one byte stream: it reads chunks, feeds
// them to a Factory and hands every decoded message to a callback.
// Opening and configuring the underlying port is the caller's business.
type Reader struct {
	src       io.Reader
	factory   *Factory
	chunkSize int

	// Stats, updated as the loop runs
	BytesRead     int
	Messages      int
	FramingErrors int
}

// NewReader creates a receive loop over src
func NewReader(src io.Reader, factory *Factory, chunkSize int) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultReadChunkSize
	}
	return &Reader{
		src:       src,
		factory:   factory,
		chunkSize: chunkSize,
	}
}

// Run reads until EOF, a read error, or ctx is cancelled. Framing errors are
// logged and skipped. EOF is not an error.
func (r *Reader) Run(ctx context.Context, handle func(*Message)) error {
	chunk := make([]byte, r.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.src.Read(chunk)
		if n > 0 {
			r.BytesRead += n
			logging.LogRawBytes("Data received", chunk[:n])
			r.factory.AddData(chunk[:n])
			r.drain(handle)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if left := r.factory.Buffered(); left > 0 {
					logging.Debug("Incomplete message at end of stream", zap.Int("bytes", left))
				}
				return nil
			}
			return fmt.Errorf("failed to read from stream: %w", readErr)
		}
	}
}

// drain pulls every complete message out of the factory
func (r *Reader) drain(handle func(*Message)) {
	for !r.factory.Done() {
		msg, err := r.factory.ProcessData()
		if err != nil {
			r.FramingErrors++
			logging.Debug("Skipping bad input", zap.Error(err))
			continue
		}
		if msg != nil {
			r.Messages++
			logging.LogMessage("received", msg.Name(), msg.Bytes())
			handle(msg)
		}
	}
}
