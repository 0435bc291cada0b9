// Package mockapi serves an in-memory follow graph over the v1.1 REST
// endpoints the collector calls, for end-to-end tests.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Endpoint paths, for SetErrorResponse and RateLimitNext
const (
	Followers = "/1.1/followers/ids.json"
	Following = "/1.1/friends/ids.json"
	Lookup    = "/1.1/users/lookup.json"
)

type account struct {
	ID     string `json:"id_str"`
	Handle string `json:"screen_name"`
}

type idsPage struct {
	IDs               []string `json:"ids"`
	NextCursorStr     string   `json:"next_cursor_str"`
	PreviousCursorStr string   `json:"previous_cursor_str"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server simulates the followers/ids, friends/ids and users/lookup
// endpoints with cursor paging, rate limiting and injected errors
type Server struct {
	server *httptest.Server

	mu         sync.RWMutex
	accounts   map[string]account
	followers  map[string][]string
	following  map[string][]string
	pageSize   int
	errors     map[string]int
	rateLimits map[string]int
	lookups    [][]string

	requestCount  int32
	rateLimitHits int32
	unsigned      int32
}

// NewServer starts a mock API with a page size of 5000 ids
func NewServer() *Server {
	m := &Server{
		accounts:   make(map[string]account),
		followers:  make(map[string][]string),
		following:  make(map[string][]string),
		pageSize:   5000,
		errors:     make(map[string]int),
		rateLimits: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Followers, m.handleIDs(Followers, func(id string) []string { return m.followers[id] }))
	mux.HandleFunc(Following, m.handleIDs(Following, func(id string) []string { return m.following[id] }))
	mux.HandleFunc(Lookup, m.handleLookup)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL to configure the client with
func (m *Server) URL() string {
	return m.server.URL
}

// Close shuts down the server
func (m *Server) Close() {
	m.server.Close()
}

// AddAccount registers an account
func (m *Server) AddAccount(id, handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[id] = account{ID: id, Handle: handle}
}

// SetFollowers sets the ids following id, newest first
func (m *Server) SetFollowers(id string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followers[id] = ids
}

// SetFollowing sets the ids id follows
func (m *Server) SetFollowing(id string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.following[id] = ids
}

// SetPageSize changes how many ids one page carries
func (m *Server) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetErrorResponse makes every request for path and handle fail with code
func (m *Server) SetErrorResponse(path, handle string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[path+"?"+strings.ToLower(handle)] = code
}

// RateLimitNext answers the next n requests to path with a 429
func (m *Server) RateLimitNext(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimits[path] = n
}

// RequestCount returns the total number of requests
func (m *Server) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// RateLimitHits returns the number of 429 responses sent
func (m *Server) RateLimitHits() int {
	return int(atomic.LoadInt32(&m.rateLimitHits))
}

// UnsignedRequests counts requests without an OAuth Authorization header
func (m *Server) UnsignedRequests() int {
	return int(atomic.LoadInt32(&m.unsigned))
}

// LookupBatches returns the id batches sent to users/lookup
func (m *Server) LookupBatches() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]string, len(m.lookups))
	copy(out, m.lookups)
	return out
}

// ResetCounters resets all request counters
func (m *Server) ResetCounters() {
	atomic.StoreInt32(&m.requestCount, 0)
	atomic.StoreInt32(&m.rateLimitHits, 0)
	atomic.StoreInt32(&m.unsigned, 0)
	m.mu.Lock()
	m.lookups = nil
	m.mu.Unlock()
}

// intercept counts the request and answers it when an error or rate limit
// is configured. It reports whether the request was handled.
func (m *Server) intercept(w http.ResponseWriter, r *http.Request, path, handle string) bool {
	atomic.AddInt32(&m.requestCount, 1)
	if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		atomic.AddInt32(&m.unsigned, 1)
	}

	m.mu.Lock()
	limited := m.rateLimits[path] > 0
	if limited {
		m.rateLimits[path]--
	}
	code := m.errors[path+"?"+strings.ToLower(handle)]
	m.mu.Unlock()

	if limited {
		atomic.AddInt32(&m.rateLimitHits, 1)
		sendError(w, http.StatusTooManyRequests, 88, "Rate limit exceeded")
		return true
	}
	if code > 0 {
		sendError(w, code, 0, fmt.Sprintf("error %d for %s", code, handle))
		return true
	}
	return false
}

func (m *Server) handleIDs(path string, list func(id string) []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		handle := q.Get("screen_name")
		if m.intercept(w, r, path, handle) {
			return
		}

		m.mu.RLock()
		defer m.mu.RUnlock()

		acct, ok := m.byHandle(handle)
		if !ok {
			sendError(w, http.StatusNotFound, 34, "Sorry, that page does not exist.")
			return
		}

		offset := 0
		if c := q.Get("cursor"); c != "" && c != "-1" {
			n, err := strconv.Atoi(c)
			if err != nil || n < 0 {
				sendError(w, http.StatusBadRequest, 44, "cursor parameter is invalid")
				return
			}
			offset = n
		}

		ids := list(acct.ID)
		if offset > len(ids) {
			offset = len(ids)
		}
		end := offset + m.pageSize
		next := "0"
		if end < len(ids) {
			next = strconv.Itoa(end)
		} else {
			end = len(ids)
		}

		page := idsPage{IDs: ids[offset:end], NextCursorStr: next, PreviousCursorStr: "0"}
		if page.IDs == nil {
			page.IDs = []string{}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (m *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	handle := q.Get("screen_name")
	if m.intercept(w, r, Lookup, handle) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var found []account
	if handle != "" {
		if acct, ok := m.byHandle(handle); ok {
			found = append(found, acct)
		}
	} else {
		ids := strings.Split(q.Get("user_id"), ",")
		m.lookups = append(m.lookups, ids)
		for _, id := range ids {
			if acct, ok := m.accounts[id]; ok {
				found = append(found, acct)
			}
		}
	}

	if len(found) == 0 {
		sendError(w, http.StatusNotFound, 17, "No user matches for specified terms.")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (m *Server) byHandle(handle string) (account, bool) {
	for _, acct := range m.accounts {
		if strings.EqualFold(acct.Handle, handle) {
			return acct, true
		}
	}
	return account{}, false
}

func sendError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"errors": []apiError{{Code: code, Message: message}},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
