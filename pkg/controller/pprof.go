package controller

import (
	"net/http"
	"net/http/pprof"
	"strings"
)

// Pprof returns a handler serving the net/http/pprof endpoints under prefix,
// e.g. "/debug/pprof/". Mount it on the same prefix. Named profiles such as
// heap or goroutine are served by the index handler.
func Pprof(prefix string) http.Handler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(prefix, pprof.Index)
	mux.HandleFunc(prefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"profile", pprof.Profile)
	mux.HandleFunc(prefix+"symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"trace", pprof.Trace)

	return mux
}
