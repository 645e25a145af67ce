// Package remotetest runs an in-memory task backend speaking the board's
// JSON API, for tests.
package remotetest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// Call records one request the backend received.
type Call struct {
	Method    string
	Action    string
	Token     string
	RequestID string
	Body      map[string]any
}

// Backend keeps active and archived rows keyed by task_id.
type Backend struct {
	mu       sync.Mutex
	srv      *httptest.Server
	tasks    map[string]map[string]any
	archive  map[string]map[string]any
	calls    []Call
	failures map[string]failure
	nextID   int
	clock    func() time.Time
}

type failure struct {
	status  int
	message string
	raw     string
}

func New() *Backend {
	b := &Backend{
		tasks:    map[string]map[string]any{},
		archive:  map[string]map[string]any{},
		failures: map[string]failure{},
		nextID:   100,
		clock:    time.Now,
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

func (b *Backend) URL() string { return b.srv.URL }

func (b *Backend) Close() { b.srv.Close() }

// SetClock controls the updated_at stamps the backend writes.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = now
}

// Seed inserts active rows as-is.
func (b *Backend) Seed(rows ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rows {
		b.tasks[fmt.Sprint(r["task_id"])] = copyRow(r)
	}
}

// SeedArchive inserts archived rows as-is.
func (b *Backend) SeedArchive(rows ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rows {
		b.archive[fmt.Sprint(r["task_id"])] = copyRow(r)
	}
}

// FailAPI makes the next request for action answer {ok:false, error: msg}.
func (b *Backend) FailAPI(action, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[action] = failure{message: msg}
}

// FailHTTP makes the next request for action answer with status.
func (b *Backend) FailHTTP(action string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[action] = failure{status: status}
}

// FailRaw makes the next request for action answer 200 with body.
func (b *Backend) FailRaw(action, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[action] = failure{raw: body}
}

func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount counts requests for action; empty action counts all.
func (b *Backend) CallCount(action string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if action == "" || c.Action == action {
			n++
		}
	}
	return n
}

func (b *Backend) Task(id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.tasks[id]
	return copyRow(r), ok
}

func (b *Backend) Archived(id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.archive[id]
	return copyRow(r), ok
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: r.Method, RequestID: r.Header.Get("X-Request-Id")}
	switch r.Method {
	case http.MethodGet:
		call.Action = r.URL.Query().Get("action")
		call.Token = r.URL.Query().Get("token")
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		if err := sonic.ConfigStd.Unmarshal(body, &call.Body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		call.Action, _ = call.Body["action"].(string)
		call.Token, _ = call.Body["token"].(string)
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)

	if f, ok := b.failures[call.Action]; ok {
		delete(b.failures, call.Action)
		switch {
		case f.status != 0:
			http.Error(w, "injected", f.status)
		case f.raw != "":
			_, _ = io.WriteString(w, f.raw)
		default:
			writeJSON(w, map[string]any{"ok": false, "error": f.message})
		}
		return
	}

	switch call.Action {
	case "tasks":
		writeJSON(w, map[string]any{"tasks": rows(b.tasks)})
	case "archive_tasks":
		writeJSON(w, map[string]any{"tasks": rows(b.archive)})
	case "upsert":
		writeJSON(w, b.upsert(call.Body))
	case "archive":
		writeJSON(w, b.move(call.Body, b.tasks, b.archive))
	case "restore":
		writeJSON(w, b.move(call.Body, b.archive, b.tasks))
	case "delete":
		writeJSON(w, b.remove(call.Body))
	default:
		writeJSON(w, map[string]any{"ok": false, "error": "unknown action"})
	}
}

func (b *Backend) stamp() string {
	return b.clock().UTC().Format(time.RFC3339)
}

func (b *Backend) upsert(body map[string]any) map[string]any {
	task, _ := body["task"].(map[string]any)
	if task == nil {
		return map[string]any{"ok": false, "error": "task missing"}
	}
	id, _ := task["task_id"].(string)
	if id == "" {
		b.nextID++
		id = strconv.Itoa(b.nextID)
	} else if _, ok := b.tasks[id]; !ok {
		return map[string]any{"ok": false, "error": "task not found"}
	}
	row := copyRow(task)
	row["task_id"] = id
	row["updated_at"] = b.stamp()
	b.tasks[id] = row
	return map[string]any{"ok": true, "task": copyRow(row)}
}

func (b *Backend) move(body map[string]any, from, to map[string]map[string]any) map[string]any {
	id, _ := body["task_id"].(string)
	row, ok := from[id]
	if !ok {
		return map[string]any{"ok": false, "error": "task not found"}
	}
	delete(from, id)
	row["updated_at"] = b.stamp()
	to[id] = row
	return map[string]any{"ok": true}
}

func (b *Backend) remove(body map[string]any) map[string]any {
	id, _ := body["task_id"].(string)
	coll := b.tasks
	if from, _ := body["from"].(string); from == "archive" {
		coll = b.archive
	}
	if _, ok := coll[id]; !ok {
		return map[string]any{"ok": false, "error": "task not found"}
	}
	delete(coll, id)
	return map[string]any{"ok": true}
}

func rows(m map[string]map[string]any) []any {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyRow(m[id]))
	}
	return out
}

func copyRow(r map[string]any) map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	buf, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}
