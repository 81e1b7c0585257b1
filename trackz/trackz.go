// Package trackz reads and writes gzipped newline-delimited files.
package trackz

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"github.com/rotblauer/trackclust/params"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

type GZFileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool

	GZFileWriterConfig
}

type GZFileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

func DefaultGZFileWriterConfig() *GZFileWriterConfig {
	return &GZFileWriterConfig{
		CompressionLevel: params.DefaultGZipCompressionLevel,
		Flag:             os.O_WRONLY | os.O_TRUNC | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewGZFileWriter(path string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if config == nil {
		config = DefaultGZFileWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &GZFileWriter{f: fi, gzw: gzw, GZFileWriterConfig: *config}, nil
}

// Write compresses p into the file, taking an exclusive lock on first use.
// The lock is released when the file is closed.
func (g *GZFileWriter) Write(p []byte) (int, error) {
	g.lock()
	return g.gzw.Write(p)
}

func (g *GZFileWriter) lock() {
	if g.locked || g.closed || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX)
	g.locked = true
}

func (g *GZFileWriter) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzw.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	if err := g.f.Sync(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

func (g *GZFileWriter) Path() string {
	return g.f.Name()
}

// AtomicGZWriter writes a gzipped file under a temporary name
// and renames it into place on Commit. Abort or a failed Commit leaves any previous file untouched.
type AtomicGZWriter struct {
	*GZFileWriter
	target string
}

func NewAtomicGZWriter(target string, config *GZFileWriterConfig) (*AtomicGZWriter, error) {
	w, err := NewGZFileWriter(target+".tmp", config)
	if err != nil {
		return nil, err
	}
	return &AtomicGZWriter{GZFileWriter: w, target: target}, nil
}

func (a *AtomicGZWriter) Commit() error {
	if err := a.GZFileWriter.Close(); err != nil {
		_ = os.Remove(a.GZFileWriter.Path())
		return err
	}
	return os.Rename(a.GZFileWriter.Path(), a.target)
}

func (a *AtomicGZWriter) Abort() {
	_ = a.GZFileWriter.Close()
	_ = os.Remove(a.GZFileWriter.Path())
}

type GZFileReader struct {
	f      *os.File
	gzr    *gzip.Reader
	closed bool
}

func NewGZFileReader(path string) (*GZFileReader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gzr, err := gzip.NewReader(fi)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &GZFileReader{f: fi, gzr: gzr}, nil
}

func (g *GZFileReader) Path() string {
	return g.f.Name()
}

// Read satisfies the io.Reader interface.
func (g *GZFileReader) Read(p []byte) (int, error) {
	return g.gzr.Read(p)
}

func (g *GZFileReader) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if err := g.gzr.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

var gzipMagic = []byte{0x1f, 0x8b}

// MaybeGZReader returns r decompressed if it starts with the gzip magic bytes,
// and r as-is otherwise.
func MaybeGZReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, gzipMagic) {
		return gzip.NewReader(br)
	}
	return br, nil
}

// OpenMaybeGZ opens a plain or gzipped file for reading.
func OpenMaybeGZ(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := MaybeGZReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{r, f}, nil
}
