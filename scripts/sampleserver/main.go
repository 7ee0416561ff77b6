// Command sampleserver serves the endpoints used by the files in samples/.
//
//	go run ./scripts/sampleserver -port 8080
//	SAMPLE_BASE_URL=http://localhost:8080 httpbatch --file samples/requests.json
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var userCounter atomic.Int64

func main() {
	port := flag.Int("port", 8080, "Listening port")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("sample HTTP server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, newMux()))
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users", handleUsers)
	mux.HandleFunc("/v1/users/", handleUserByID)
	mux.HandleFunc("/search", handleSearch)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/echo", handleEcho)
	mux.HandleFunc("/slow", handleSlow)
	mux.HandleFunc("/status/", handleStatus)
	mux.HandleFunc("/gzip", handleGzip)
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "plain text is not reported as a body")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "path": r.URL.Path})
	})
	return mux
}

func handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, map[string]any{
			"users": []map[string]any{{"id": "u-1", "name": "Sample"}},
			"total": 1,
		})
	case http.MethodPost:
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		id := userCounter.Add(1)
		payload["id"] = fmt.Sprintf("u-%d", id+1)
		payload["created_at"] = time.Now().Format(time.RFC3339)
		respondJSON(w, http.StatusCreated, payload)
	default:
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func handleUserByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if id == "" || id == "missing" {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "user not found"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, map[string]any{"id": id, "name": "Sample"})
	case http.MethodPut, http.MethodPatch:
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		respondJSON(w, http.StatusOK, map[string]any{"id": id, "updated": payload})
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"query":   r.URL.Query().Get("q"),
		"limit":   r.URL.Query().Get("limit"),
		"results": []string{"alpha", "beta"},
	})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	if err := r.ParseForm(); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if r.PostForm.Get("username") == "" {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "username required"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": r.PostForm.Get("username"), "session": "sample-session"})
}

func handleEcho(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	respondJSON(w, http.StatusOK, map[string]any{
		"method":  r.Method,
		"query":   r.URL.RawQuery,
		"headers": r.Header,
		"body":    string(body),
	})
}

func handleSlow(w http.ResponseWriter, r *http.Request) {
	delay, err := time.ParseDuration(r.URL.Query().Get("delay"))
	if err != nil {
		delay = 2 * time.Second
	}
	select {
	case <-time.After(delay):
		respondJSON(w, http.StatusOK, map[string]any{"slept": delay.String()})
	case <-r.Context().Done():
	}
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 999 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "status must be a number between 100 and 999"})
		return
	}
	respondJSON(w, code, map[string]any{"status": code})
}

func handleGzip(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	_ = json.NewEncoder(gz).Encode(map[string]any{"compressed": true})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
