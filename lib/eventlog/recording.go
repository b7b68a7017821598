// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/roomchat/lib/codec"
)

// Compression is the framing applied to a recording file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionForPath picks the compression from the file extension.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Recorder appends entries to a recording. It is safe for concurrent
// use.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	buffer  *bufio.Writer
	framer  io.WriteCloser
	encoder *codec.Encoder
	closed  bool
}

// Create starts a new recording at path, truncating any existing file,
// and writes header. Format and Version are filled in.
func Create(path string, header Header) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	recorder, err := NewRecorder(file, CompressionForPath(path), header)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}
	recorder.file = file
	return recorder, nil
}

// NewRecorder writes a recording to w. Close flushes the compression
// frame but does not close w.
func NewRecorder(w io.Writer, compression Compression, header Header) (*Recorder, error) {
	recorder := &Recorder{buffer: bufio.NewWriter(w)}
	var sink io.Writer = recorder.buffer
	switch compression {
	case CompressionZstd:
		encoder, err := zstd.NewWriter(recorder.buffer, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("starting zstd stream: %w", err)
		}
		recorder.framer = encoder
		sink = encoder
	case CompressionLZ4:
		writer := lz4.NewWriter(recorder.buffer)
		recorder.framer = writer
		sink = writer
	}
	recorder.encoder = codec.NewEncoder(sink)

	header.Format = Format
	header.Version = Version
	if err := recorder.encoder.Encode(header); err != nil {
		return nil, fmt.Errorf("writing recording header: %w", err)
	}
	return recorder, nil
}

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("eventlog: recorder closed")

// Record appends entry.
func (r *Recorder) Record(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.encoder.Encode(entry); err != nil {
		return fmt.Errorf("recording %s entry: %w", entry.Kind, err)
	}
	return nil
}

// Close finishes the compression frame, flushes and closes the file if
// Create opened it.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.framer != nil {
		errs = append(errs, r.framer.Close())
	}
	errs = append(errs, r.buffer.Flush())
	if r.file != nil {
		errs = append(errs, r.file.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing recording: %w", err)
	}
	return nil
}

// Reader reads a recording. It implements Source.
type Reader struct {
	header  Header
	decoder *codec.Decoder
	closers []func() error
}

// Open opens the recording at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	reader, err := NewReader(file, CompressionForPath(path))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reader.closers = append(reader.closers, file.Close)
	return reader, nil
}

// NewReader reads a recording from r and validates its header.
func NewReader(r io.Reader, compression Compression) (*Reader, error) {
	reader := &Reader{}
	source := bufio.NewReader(r)
	var stream io.Reader = source
	switch compression {
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			return nil, fmt.Errorf("starting zstd stream: %w", err)
		}
		reader.closers = append(reader.closers, func() error { decoder.Close(); return nil })
		stream = decoder
	case CompressionLZ4:
		stream = lz4.NewReader(source)
	}
	reader.decoder = codec.NewDecoder(stream)

	if err := reader.decoder.Decode(&reader.header); err != nil {
		reader.Close()
		return nil, fmt.Errorf("reading recording header: %w", err)
	}
	if reader.header.Format != Format {
		reader.Close()
		return nil, fmt.Errorf("not a recording: format %q", reader.header.Format)
	}
	if reader.header.Version != Version {
		reader.Close()
		return nil, fmt.Errorf("unsupported recording version %d", reader.header.Version)
	}
	return reader, nil
}

// Header returns the recording header.
func (r *Reader) Header() Header { return r.header }

// Next returns the next entry, or io.EOF at the end of the recording.
func (r *Reader) Next() (Entry, error) {
	var entry Entry
	if err := r.decoder.Decode(&entry); err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("reading recording entry: %w", err)
	}
	return entry, nil
}

// Close releases the file and decompressor.
func (r *Reader) Close() error {
	var errs []error
	for _, closer := range r.closers {
		errs = append(errs, closer())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// ReadAll drains source.
func ReadAll(source Source) ([]Entry, error) {
	var entries []Entry
	for {
		entry, err := source.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}
