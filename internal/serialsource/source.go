// Package serialsource reads sensor readings from a serial-attached bridge
// that prints one CSV line per reading.
package serialsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/monitoring"
)

// SerialPorter defines the minimal interface needed for a serial port.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// Sink accepts decoded readings. *mocap.Queue satisfies it.
type Sink interface {
	Push(r mocap.Reading) bool
}

// Stats counts what the source has seen.
type Stats struct {
	Lines    uint64
	Readings uint64
	Rejected uint64
	Dropped  uint64
}

// Source turns lines from a serial port into readings.
type Source[T SerialPorter] struct {
	port T
	sink Sink

	mu    sync.Mutex
	stats Stats

	closingMu sync.Mutex
	closing   bool
}

// NewSource wraps an open port.
func NewSource[T SerialPorter](port T, sink Sink) *Source[T] {
	return &Source[T]{port: port, sink: sink}
}

// Open opens the port at path and wraps it.
func Open(path string, opts PortOptions, sink Sink) (*Source[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return NewSource[serial.Port](port, sink), nil
}

// Stats returns a copy of the counters.
func (s *Source[T]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Monitor reads lines until the port reaches EOF, the source is closed or
// ctx is cancelled. Malformed lines are counted and skipped.
func (s *Source[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs in its own goroutine so cancellation is not
	// held up by a quiet port.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			if s.isClosing() {
				return nil
			}
			s.handleLine(line)
		}
	}
}

func (s *Source[T]) handleLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Lines++

	r, err := ParseLine(line)
	if errors.Is(err, ErrEmptyLine) {
		return
	}
	if err != nil {
		s.stats.Rejected++
		monitoring.Debugf("serial: %v", err)
		return
	}
	s.stats.Readings++
	if s.sink != nil && !s.sink.Push(r) {
		s.stats.Dropped++
	}
}

func (s *Source[T]) isClosing() bool {
	s.closingMu.Lock()
	defer s.closingMu.Unlock()
	return s.closing
}

// Close stops Monitor and closes the port.
func (s *Source[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()
	return s.port.Close()
}
