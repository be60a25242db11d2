package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

type pinger interface {
	indexer
	Ping(ctx context.Context) error
}

// Health reports whether the representative directory has loaded.
func Health(dir pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		count := 0

		if err := dir.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else if idx, err := dir.Index(); err == nil {
			count = idx.Len()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "representatives": count})
	}
}
