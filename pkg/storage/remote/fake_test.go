package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	fakeAnonKey    = "anon-key"
	fakeAdminToken = "admin-token"
)

var fakeForeignKeys = map[string]map[string]string{
	"lead_calls":           {"lead_id": "leads"},
	"payments":             {"invoice_id": "invoices"},
	"quote_items":          {"quote_id": "quotes"},
	"service_job_comments": {"service_job_id": "service_jobs"},
	"requirement_comments": {"requirement_id": "requirements"},
}

// fakeService is an in-memory stand-in for the subset of PostgREST and the storage API the
// backend uses.
type fakeService struct {
	mu          sync.Mutex
	tables      map[string][]map[string]any
	objects     map[string][]byte
	requests    []string
	bearers     []string
	failInserts map[string]bool
	patches     map[string][]map[string]any
}

func newFakeService() *fakeService {
	return &fakeService{
		tables:      map[string][]map[string]any{},
		objects:     map[string][]byte{},
		failInserts: map[string]bool{},
		patches:     map[string][]map[string]any{},
	}
}

func (f *fakeService) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeService) resetRequests() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
	f.bearers = nil
}

// patchedColumns returns the sorted keys of every PATCH body sent to table.
func (f *fakeService) patchedColumns(table string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	columns := [][]string{}
	for _, patch := range f.patches[table] {
		keys := []string{}
		for key := range patch {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		columns = append(columns, keys)
	}
	return columns
}

func (f *fakeService) objectKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := []string{}
	for key := range f.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(out)
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bearers = append(f.bearers, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))

	if r.Header.Get("apikey") != fakeAnonKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
		return
	}

	path := r.URL.Path
	switch {
	case path == "/rest/v1/":
		writeJSON(w, http.StatusOK, map[string]any{})
	case path == "/rest/v1/rpc/is_admin":
		writeJSON(w, http.StatusOK, r.Header.Get("Authorization") == "Bearer "+fakeAdminToken)
	case strings.HasPrefix(path, "/rest/v1/"):
		f.serveTable(w, r, strings.TrimPrefix(path, "/rest/v1/"))
	case strings.HasPrefix(path, "/storage/v1/object/sign/"):
		f.serveSign(w, r)
	case strings.HasPrefix(path, "/storage/v1/object/"):
		f.serveObject(w, r, strings.TrimPrefix(path, "/storage/v1/object/"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no route"})
	}
}

func filtersOf(r *http.Request) map[string]string {
	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if key == "select" || key == "order" || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	return filters
}

func matches(row map[string]any, filters map[string]string) bool {
	for column, filter := range filters {
		value := fmt.Sprint(row[column])
		switch {
		case strings.HasPrefix(filter, "eq."):
			if value != strings.TrimPrefix(filter, "eq.") {
				return false
			}
		case strings.HasPrefix(filter, "in.("):
			found := false
			for _, candidate := range strings.Split(strings.TrimSuffix(strings.TrimPrefix(filter, "in.("), ")"), ",") {
				if strings.Trim(candidate, `"`) == value {
					found = true
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func less(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, _ := b.(string)
		at, aErr := time.Parse(time.RFC3339Nano, as)
		bt, bErr := time.Parse(time.RFC3339Nano, bs)
		if aErr == nil && bErr == nil {
			return at.Before(bt)
		}
		return as < bs
	}
	af, _ := strconv.ParseFloat(fmt.Sprint(a), 64)
	bf, _ := strconv.ParseFloat(fmt.Sprint(b), 64)
	return af < bf
}

func (f *fakeService) serveTable(w http.ResponseWriter, r *http.Request, table string) {
	filters := filtersOf(r)

	switch r.Method {
	case http.MethodGet:
		rows := []map[string]any{}
		for _, row := range f.tables[table] {
			if matches(row, filters) {
				rows = append(rows, row)
			}
		}
		if order := r.URL.Query().Get("order"); order != "" {
			column, direction, _ := strings.Cut(order, ".")
			sort.SliceStable(rows, func(i, j int) bool {
				if direction == "desc" {
					return less(rows[j][column], rows[i][column])
				}
				return less(rows[i][column], rows[j][column])
			})
		}
		writeJSON(w, http.StatusOK, rows)

	case http.MethodPost:
		var row map[string]any
		if err := decodeBody(r, &row); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		if f.failInserts[table] {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"code": "XX000", "message": "insert failed"})
			return
		}
		for column, parent := range fakeForeignKeys[table] {
			if !f.exists(parent, fmt.Sprint(row[column])) {
				writeJSON(w, http.StatusConflict, map[string]any{
					"code":    "23503",
					"message": fmt.Sprintf("insert or update on table %q violates foreign key constraint", table),
				})
				return
			}
		}
		f.tables[table] = append(f.tables[table], row)
		writeJSON(w, http.StatusCreated, []map[string]any{row})

	case http.MethodPatch:
		var patch map[string]any
		if err := decodeBody(r, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		f.patches[table] = append(f.patches[table], patch)
		updated := []map[string]any{}
		for _, row := range f.tables[table] {
			if !matches(row, filters) {
				continue
			}
			for key, value := range patch {
				row[key] = value
			}
			updated = append(updated, row)
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		kept := []map[string]any{}
		for _, row := range f.tables[table] {
			if !matches(row, filters) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
	}
}

func (f *fakeService) exists(table, id string) bool {
	for _, row := range f.tables[table] {
		if fmt.Sprint(row["id"]) == id {
			return true
		}
	}
	return false
}

func (f *fakeService) serveSign(w http.ResponseWriter, r *http.Request) {
	bucket := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/sign/")
	var payload struct {
		ExpiresIn int      `json:"expiresIn"`
		Paths     []string `json:"paths"`
	}
	if err := decodeBody(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}

	signed := []map[string]any{}
	for _, path := range payload.Paths {
		if _, ok := f.objects[bucket+"/"+path]; !ok {
			signed = append(signed, map[string]any{"path": path, "signedURL": nil, "error": "Either the object does not exist or you do not have access to it"})
			continue
		}
		signed = append(signed, map[string]any{
			"path":      path,
			"signedURL": fmt.Sprintf("/object/sign/%s/%s?token=t%d", bucket, path, payload.ExpiresIn),
			"error":     nil,
		})
	}
	writeJSON(w, http.StatusOK, signed)
}

func (f *fakeService) serveObject(w http.ResponseWriter, r *http.Request, rest string) {
	switch r.Method {
	case http.MethodPost:
		if _, ok := f.objects[rest]; ok {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "Duplicate", "message": "The resource already exists"})
			return
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		f.objects[rest] = bytes.Clone(data)
		writeJSON(w, http.StatusOK, map[string]any{"Key": rest})

	case http.MethodDelete:
		var payload struct {
			Prefixes []string `json:"prefixes"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		for _, prefix := range payload.Prefixes {
			delete(f.objects, rest+"/"+prefix)
		}
		writeJSON(w, http.StatusOK, []any{})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
	}
}
