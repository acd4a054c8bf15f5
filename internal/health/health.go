package health

import (
	"net/http"

	"github.com/star/eopgo/internal/eop"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns 200 "ready\n" once the provider holds an EOP table, and
// 503 before the first successful load.
func Readyz(provider *eop.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if !provider.Initialized() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("eop data not loaded\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}
