package typo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-typo/pkg/clients"
	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/base"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

const (
	mockRepository = "mock_repository"
	mockDataset    = "mock_dataset"
	mockAuditID    = 123

	mockDatasetStream = "tap-typo-mock_repository-mock_dataset"
	mockAuditStream   = "tap-typo-mock_repository-mock_dataset-audit-123"

	mockAPIKey    = "key"
	mockAPISecret = "secret"
)

// fakeTypo serves the subset of the Typo API the tap consumes.
type fakeTypo struct {
	server *httptest.Server

	mu sync.Mutex
	// datasets and audits are the raw JSON arrays returned by the listings.
	datasets string
	audits   string
	// headers maps an entity path to the raw JSON schema of its header.
	headers map[string]string
	// results maps an entity path to its records in id order.
	results map[string][]RemoteRecord

	tokensIssued int
	// rejectFirstToken answers 401 to any request carrying the first token.
	rejectFirstToken bool
	failures         map[string]int
	// extraLinks adds prev and last links next to the next link, all in
	// one comma separated Link header.
	extraLinks bool

	resultQueries []url.Values
	requests      []string
}

func newFakeTypo(t *testing.T) *fakeTypo {
	t.Helper()
	f := &fakeTypo{
		datasets: "[]",
		audits:   "[]",
		headers:  make(map[string]string),
		results:  make(map[string][]RemoteRecord),
		failures: make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// mockAuditRecords returns records with ids from..to; odd ids have errors.
func mockAuditRecords(from, to int64) []RemoteRecord {
	records := make([]RemoteRecord, 0, to-from+1)
	for id := from; id <= to; id++ {
		records = append(records, RemoteRecord{
			ID:        id,
			HasErrors: id%2 == 1,
			Record:    map[string]interface{}{"date": "today", "typo": "tap"},
		})
	}
	return records
}

// withMockAudit registers audit 123 of the mock dataset with records from..to.
func (f *fakeTypo) withMockAudit(from, to int64) *fakeTypo {
	schema := `{"date": {"type": "string"}, "typo": {"type": "string"}}`
	f.audits = fmt.Sprintf(`[{"id": %d, "repository": %q, "dataset": %q, "state": "COMPLETED", "schema": %s, "row_count": %d}]`,
		mockAuditID, mockRepository, mockDataset, schema, to-from+1)
	path := Entity{Repository: mockRepository, Dataset: mockDataset, AuditID: mockAuditID}.path()
	f.headers[path] = schema
	f.results[path] = mockAuditRecords(from, to)
	return f
}

func (f *fakeTypo) URL() string {
	return f.server.URL
}

func (f *fakeTypo) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	f.requests = append(f.requests, r.Method+" "+path)

	if n := f.failures[path]; n > 0 {
		f.failures[path] = n - 1
		f.reply(w, http.StatusServiceUnavailable, `{"code":"ERROR","message":"try later"}`)
		return
	}

	if path == "token" {
		f.token(w, r)
		return
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer token-") || (f.rejectFirstToken && auth == "Bearer token-1") {
		f.reply(w, http.StatusUnauthorized, `{"code":"UNAUTHORIZED","message":"token expired"}`)
		return
	}

	switch {
	case path == "datasets":
		f.reply(w, http.StatusOK, `{"code":"OK","data":`+f.datasets+`}`)
	case path == "audits":
		f.reply(w, http.StatusOK, `{"code":"OK","data":`+f.audits+`}`)
	case strings.HasSuffix(path, "/results"):
		f.serveResults(w, r, strings.TrimSuffix(path, "/results"))
	default:
		schema, ok := f.headers[path]
		if !ok {
			f.reply(w, http.StatusNotFound, `{"code":"NOT_FOUND","message":"no such entity"}`)
			return
		}
		f.reply(w, http.StatusOK, `{"code":"OK","data":{"id":1,"dataset":{"schema":`+schema+`}}}`)
	}
}

func (f *fakeTypo) token(w http.ResponseWriter, r *http.Request) {
	var body tokenBody
	if r.Method != http.MethodPost || jsonpool.GetDecoder(r.Body).Decode(&body) != nil {
		f.reply(w, http.StatusBadRequest, `{"message":"bad token request"}`)
		return
	}
	if body.APIKey != mockAPIKey || body.Secret != mockAPISecret {
		f.reply(w, http.StatusUnauthorized, `{"message":"invalid credentials"}`)
		return
	}
	f.tokensIssued++
	f.reply(w, http.StatusOK, fmt.Sprintf(`{"token":"token-%d"}`, f.tokensIssued))
}

type tokenBody struct {
	APIKey string `json:"apikey"`
	Secret string `json:"secret"`
}

func (f *fakeTypo) serveResults(w http.ResponseWriter, r *http.Request, entity string) {
	query := r.URL.Query()
	f.resultQueries = append(f.resultQueries, query)

	records, ok := f.results[entity]
	if !ok {
		f.reply(w, http.StatusNotFound, `{"code":"NOT_FOUND","message":"no such entity"}`)
		return
	}

	if filter := query.Get("record_id_filter"); filter != "" {
		after, err := strconv.ParseInt(strings.TrimPrefix(filter, "gt:"), 10, 64)
		if err != nil {
			f.reply(w, http.StatusBadRequest, `{"code":"BAD_REQUEST","message":"bad record_id_filter"}`)
			return
		}
		filtered := make([]RemoteRecord, 0, len(records))
		for _, rec := range records {
			if rec.ID > after {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	perPage, perPageErr := strconv.Atoi(query.Get("records_per_page"))
	page, pageErr := strconv.Atoi(query.Get("page"))
	if perPageErr != nil || pageErr != nil || perPage <= 0 || page <= 0 {
		f.reply(w, http.StatusBadRequest, `{"code":"BAD_REQUEST","message":"bad paging parameters"}`)
		return
	}

	start := (page - 1) * perPage
	if start > len(records) {
		start = len(records)
	}
	end := start + perPage
	if end > len(records) {
		end = len(records)
	}

	pageURL := func(n int) string {
		u := *r.URL
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return u.String()
	}
	lastPage := (len(records) + perPage - 1) / perPage
	var links []string
	if f.extraLinks && page > 1 {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, pageURL(page-1)))
	}
	if end < len(records) {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, pageURL(page+1)))
	}
	if f.extraLinks && lastPage > 0 {
		links = append(links, fmt.Sprintf(`<%s>; rel="last"`, pageURL(lastPage)))
	}
	if len(links) > 0 {
		w.Header().Set("Link", strings.Join(links, ", "))
	}

	data := resultsData{
		Page:         page,
		PerPage:      perPage,
		TotalPages:   lastPage,
		TotalRecords: int64(len(records)),
		Records:      records[start:end],
	}
	body, err := jsonpool.Marshal(envelope[resultsData]{Code: "OK", Data: data})
	if err != nil {
		f.reply(w, http.StatusInternalServerError, `{"code":"ERROR","message":"encode failed"}`)
		return
	}
	f.reply(w, http.StatusOK, string(body))
}

func (f *fakeTypo) reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// queries returns a copy of the results queries served so far.
func (f *fakeTypo) queries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.resultQueries...)
}

func (f *fakeTypo) tokens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokensIssued
}

// newTestSource returns an initialized source pointed at f that does not
// retry failed requests.
func newTestSource(t *testing.T, f *fakeTypo, mutate func(*config.TypoSourceConfig)) *TypoSource {
	t.Helper()
	cfg := config.NewTypoSourceConfig()
	cfg.ClusterAPIEndpoint = f.URL()
	cfg.APIKey = mockAPIKey
	cfg.APISecret = mockAPISecret
	cfg.Repository = mockRepository
	cfg.Dataset = mockDataset
	cfg.AuditID = mockAuditID
	cfg.Advanced.EnableHTTP2 = false
	if mutate != nil {
		mutate(cfg)
	}

	src, err := NewTypoSource(cfg, WithHTTPOptions(clients.WithRetryPolicy(base.NoRetryPolicy())))
	require.NoError(t, err)

	require.NoError(t, src.Initialize(context.Background()))
	t.Cleanup(func() { _ = src.Close(context.Background()) })
	return src
}
