package player

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/chorus/internal/plugin"
)

// fileStream is the built-in data stream over a local file.
type fileStream struct {
	f   *os.File
	uri string
	len int64
}

var _ plugin.DataStream = (*fileStream)(nil)

func (s *fileStream) Read(p []byte) (int, error)                 { return s.f.Read(p) }
func (s *fileStream) Seek(off int64, whence int) (int64, error)  { return s.f.Seek(off, whence) }
func (s *fileStream) Close() error                               { return s.f.Close() }
func (s *fileStream) Length() int64                              { return s.len }
func (s *fileStream) URI() string                                { return s.uri }
func (s *fileStream) CanPrefetch() bool                          { return true }
func (s *fileStream) Type() string {
	return strings.ToLower(filepath.Ext(s.uri))
}

// Interrupt closes the file, failing any pending read.
func (s *fileStream) Interrupt() {
	_ = s.f.Close()
}

// fileStreamFactory opens local paths and file:// uris.
type fileStreamFactory struct{}

var _ plugin.DataStreamFactory = (*fileStreamFactory)(nil)

func (fileStreamFactory) CanOpen(uri string) bool {
	return !strings.Contains(uri, "://") || strings.HasPrefix(uri, "file://")
}

func (fileStreamFactory) Open(uri string) (plugin.DataStream, error) {
	path := strings.TrimPrefix(uri, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileStream{f: f, uri: uri, len: info.Size()}, nil
}

// httpStream is the built-in data stream over an http(s) uri. The
// whole body is buffered so decoders can seek; large remote files
// belong to a prefetching stream plugin instead.
type httpStream struct {
	r    *bytes.Reader
	size int64
	uri  string
	typ  string
}

var _ plugin.DataStream = (*httpStream)(nil)

func (s *httpStream) Read(p []byte) (int, error)                { return s.r.Read(p) }
func (s *httpStream) Seek(off int64, whence int) (int64, error) { return s.r.Seek(off, whence) }
func (s *httpStream) Close() error                              { return nil }
func (s *httpStream) Length() int64                             { return s.size }
func (s *httpStream) URI() string                               { return s.uri }
func (s *httpStream) CanPrefetch() bool                         { return false }
func (s *httpStream) Interrupt()                                {}

func (s *httpStream) Type() string {
	if s.typ != "" {
		return s.typ
	}
	return strings.ToLower(filepath.Ext(s.uri))
}

// httpStreamFactory opens http(s) uris.
type httpStreamFactory struct{}

var _ plugin.DataStreamFactory = (*httpStreamFactory)(nil)

func (httpStreamFactory) CanOpen(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func (httpStreamFactory) Open(uri string) (plugin.DataStream, error) {
	resp, err := http.Get(uri) //nolint:gosec // uri comes from the catalog
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http stream: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	typ := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		typ = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}

	return &httpStream{r: bytes.NewReader(data), size: int64(len(data)), uri: uri, typ: typ}, nil
}
