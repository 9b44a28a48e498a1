package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lru"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/chameleon/pkg/observability"
)

const (
	maxBodyBytes = 1 << 20
	cacheHeader  = "X-Cache"
)

var (
	errMissingParam = errors.New("missing parameter")
	errBadThreshold = errors.New("threshold must be a number in [0, 1]")
	errOutOfRange   = errors.New("index range out of bounds")
)

// SimilarResponse answers similarity queries.
type SimilarResponse struct {
	ID        string      `json:"id,omitempty"`
	Threshold float64     `json:"threshold"`
	Matches   []lsh.Match `json:"matches"`
}

// SimilarTextRequest is the body of POST /v1/similar/text.
type SimilarTextRequest struct {
	Text      string   `json:"text"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// DocumentRequest is the body of PUT /v1/documents/{id}.
type DocumentRequest struct {
	Text string `json:"text"`
}

// RTTUpdateRequest is the body of POST /v1/rtt/update.
type RTTUpdateRequest struct {
	Index int `json:"index"`
	RTT   int `json:"rtt"`
}

// SnapshotInfo describes the served snapshot.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	Profiles  int       `json:"profiles"`
	Events    int       `json:"events"`
	Indexed   int       `json:"indexed"`
	RTTValues int       `json:"rtt_values"`
	Cache     lru.Stats `json:"cache"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(rw http.ResponseWriter, hr *http.Request, code int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		observability.LoggerFrom(hr.Context()).ErrorContext(hr.Context(), "encode response", "error", err)
	}
}

func (s *Server) writeError(rw http.ResponseWriter, hr *http.Request, code int, err error) {
	s.writeJSON(rw, hr, code, errorBody{Error: err.Error()})
}

func decodeBody(hr *http.Request, v any) error {
	body := io.LimitReader(hr.Body, maxBodyBytes)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}

	return nil
}

func (s *Server) threshold(raw string) (float64, error) {
	if raw == "" {
		return s.engine.Threshold(), nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, errBadThreshold
	}

	return v, nil
}

func intParam(hr *http.Request, name string) (int, error) {
	raw := hr.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", errMissingParam, name)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", name, err)
	}

	return v, nil
}

func (s *Server) handleSnapshot(rw http.ResponseWriter, hr *http.Request) {
	s.mu.RLock()
	info := SnapshotInfo{
		ID:        s.snap.ID.String(),
		FetchedAt: s.snap.FetchedAt,
		Profiles:  len(s.snap.Profiles),
		Events:    len(s.snap.Events),
		Indexed:   s.engine.Len(),
		RTTValues: s.rtt.Len(),
		Cache:     s.CacheStats(),
	}
	s.mu.RUnlock()

	s.writeJSON(rw, hr, http.StatusOK, info)
}

func (s *Server) handleSimilar(rw http.ResponseWriter, hr *http.Request) {
	id := hr.URL.Query().Get("id")
	if id == "" {
		s.writeError(rw, hr, http.StatusBadRequest, fmt.Errorf("%w: id", errMissingParam))

		return
	}

	th, err := s.threshold(hr.URL.Query().Get("threshold"))
	if err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, err)

		return
	}

	s.mu.RLock()
	known := s.engine.Index().Contains(id)
	matches, hit := s.similar(id, th)
	s.mu.RUnlock()

	if !known {
		s.writeError(rw, hr, http.StatusNotFound, fmt.Errorf("document %q not indexed", id))

		return
	}

	if s.cache != nil {
		rw.Header().Set(cacheHeader, cacheStatus(hit))
	}

	s.writeJSON(rw, hr, http.StatusOK, SimilarResponse{ID: id, Threshold: th, Matches: matches})
}

// similar answers from the cache when possible. Callers hold the read lock,
// so a concurrent write cannot purge between compute and store.
func (s *Server) similar(id string, th float64) ([]lsh.Match, bool) {
	if s.cache == nil {
		return s.engine.Similar(id, th), false
	}

	key := similarKey{id: id, threshold: th}
	if matches, ok := s.cache.Get(key); ok {
		return matches, true
	}

	matches := s.engine.Similar(id, th)
	s.cache.Put(key, matches)

	return matches, false
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}

	return "miss"
}

func (s *Server) handleSimilarText(rw http.ResponseWriter, hr *http.Request) {
	var req SimilarTextRequest

	if err := decodeBody(hr, &req); err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, err)

		return
	}

	th := s.engine.Threshold()
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			s.writeError(rw, hr, http.StatusBadRequest, errBadThreshold)

			return
		}

		th = *req.Threshold
	}

	s.mu.RLock()
	matches := s.engine.SimilarText(req.Text, th)
	s.mu.RUnlock()

	s.writeJSON(rw, hr, http.StatusOK, SimilarResponse{Threshold: th, Matches: matches})
}

func (s *Server) handlePutDocument(rw http.ResponseWriter, hr *http.Request) {
	id := hr.PathValue("id")

	var req DocumentRequest

	if err := decodeBody(hr, &req); err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, err)

		return
	}

	if strings.TrimSpace(req.Text) == "" {
		s.writeError(rw, hr, http.StatusBadRequest, fmt.Errorf("%w: text", errMissingParam))

		return
	}

	s.mu.Lock()
	s.engine.Add(id, req.Text)
	s.invalidate()
	n := s.engine.Len()
	s.mu.Unlock()

	observability.LoggerFrom(hr.Context()).InfoContext(hr.Context(), "document indexed", "id", id, "indexed", n)

	s.writeJSON(rw, hr, http.StatusOK, map[string]any{"id": id, "indexed": n})
}

func (s *Server) handleDeleteDocument(rw http.ResponseWriter, hr *http.Request) {
	id := hr.PathValue("id")

	s.mu.Lock()
	removed := s.engine.Remove(id)
	if removed {
		s.invalidate()
	}
	s.mu.Unlock()

	if !removed {
		s.writeError(rw, hr, http.StatusNotFound, fmt.Errorf("document %q not indexed", id))

		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(rw http.ResponseWriter, hr *http.Request) {
	key := hr.PathValue("key")

	s.mu.RLock()
	p, ok := s.dir.Lookup(key)
	s.mu.RUnlock()

	if !ok {
		s.writeError(rw, hr, http.StatusNotFound, fmt.Errorf("profile %q not found", key))

		return
	}

	s.writeJSON(rw, hr, http.StatusOK, p)
}

func (s *Server) handleUsernames(rw http.ResponseWriter, hr *http.Request) {
	prefix := hr.URL.Query().Get("prefix")

	s.mu.RLock()
	names := s.dir.Usernames(prefix)
	s.mu.RUnlock()

	if names == nil {
		names = []string{}
	}

	s.writeJSON(rw, hr, http.StatusOK, map[string]any{"prefix": prefix, "usernames": names})
}

func (s *Server) handleRTTRange(rw http.ResponseWriter, hr *http.Request) {
	l, err := intParam(hr, "l")
	if err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, err)

		return
	}

	r, err := intParam(hr, "r")
	if err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, err)

		return
	}

	s.mu.RLock()
	n := s.rtt.Len()
	rs := s.rtt.Range(l, r)
	s.mu.RUnlock()

	if l < 0 || r >= n || l > r {
		s.writeError(rw, hr, http.StatusBadRequest, fmt.Errorf("%w: [%d, %d] with %d values", errOutOfRange, l, r, n))

		return
	}

	s.writeJSON(rw, hr, http.StatusOK, rs)
}

func (s *Server) handleRTTSummary(rw http.ResponseWriter, hr *http.Request) {
	s.mu.RLock()
	sum := s.rtt.Summary()
	s.mu.RUnlock()

	s.writeJSON(rw, hr, http.StatusOK, sum)
}

func (s *Server) handleRTTUpdate(rw http.ResponseWriter, hr *http.Request) {
	var req RTTUpdateRequest

	if err := decodeBody(hr, &req); err != nil {
		s.writeError(rw, hr, http.StatusBadRequest, err)

		return
	}

	s.mu.Lock()
	ok := s.rtt.Update(req.Index, req.RTT)
	n := s.rtt.Len()

	var rs analysis.RangeStats
	if ok {
		rs = s.rtt.Range(0, n-1)
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(rw, hr, http.StatusBadRequest, fmt.Errorf("%w: index %d with %d values", errOutOfRange, req.Index, n))

		return
	}

	s.writeJSON(rw, hr, http.StatusOK, rs)
}
