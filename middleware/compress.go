// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipPool = sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gw
	}}
	zstdPool = sync.Pool{New: func() any {
		zw, err := zstd.NewWriter(io.Discard,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}}
)

type compressWriter struct {
	http.ResponseWriter
	w        io.Writer
	disabled bool
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	return cw.w.Write(b)
}

func (cw *compressWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if code == http.StatusNoContent || code == http.StatusNotModified || (code >= 100 && code < 200) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression encodes responses with zstd or gzip, whichever the client
// accepts first in that order.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}

		accept := r.Header.Get("Accept-Encoding")
		switch {
		case strings.Contains(accept, "zstd"):
			zw := zstdPool.Get().(*zstd.Encoder)
			zw.Reset(w)
			serveCompressed(w, r, next, "zstd", zw, func(disabled bool) {
				if disabled {
					zw.Reset(io.Discard)
				}
				_ = zw.Close()
				zstdPool.Put(zw)
			})
		case strings.Contains(accept, "gzip"):
			gw := gzipPool.Get().(*gzip.Writer)
			gw.Reset(w)
			serveCompressed(w, r, next, "gzip", gw, func(disabled bool) {
				if disabled {
					gw.Reset(io.Discard)
				}
				_ = gw.Close()
				gzipPool.Put(gw)
			})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// release runs after the handler; a body-less response must not get an encoder footer.
func serveCompressed(w http.ResponseWriter, r *http.Request, next http.Handler, encoding string, enc io.Writer, release func(disabled bool)) {
	w.Header().Set("Content-Encoding", encoding)
	w.Header().Add("Vary", "Accept-Encoding")

	cw := &compressWriter{ResponseWriter: w, w: enc}
	defer func() { release(cw.disabled) }()

	next.ServeHTTP(cw, r)
}
