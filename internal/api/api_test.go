package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipartes/quote-cli/internal/apperr"
	"github.com/ipartes/quote-cli/internal/directory"
	"github.com/ipartes/quote-cli/internal/discovery"
	"github.com/ipartes/quote-cli/internal/metrics"
	"github.com/ipartes/quote-cli/internal/model"
	"github.com/ipartes/quote-cli/internal/quote"
	"github.com/ipartes/quote-cli/internal/store"
)

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Directory == nil {
		st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		require.NoError(t, st.Migrate(context.Background()))
		deps.Directory = directory.New(st)
	}
	if deps.Drafter == nil {
		deps.Drafter = &fakeDrafter{email: "Dear Sales Team,"}
	}
	if deps.Discoverer == nil {
		deps.Discoverer = &fakeDiscoverer{}
	}
	deps.Service = "Sistema de Cotação IPARTES"
	deps.Version = "2.0.0"
	return New(deps)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func supplierOf(t *testing.T, rec *httptest.ResponseRecorder) model.Supplier {
	t.Helper()
	var sup model.Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sup))
	return sup
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Deps{})
	s.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC) }

	rec := do(t, s.Router(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "2025-03-04T05:06:07.008Z", body["timestamp"])
	assert.Equal(t, "Sistema de Cotação IPARTES", body["service"])
	assert.Equal(t, "2.0.0", body["version"])
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "caller-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/suppliers", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerateEmail(t *testing.T) {
	drafter := &fakeDrafter{email: "Dear Sales Team,\n\nPlease quote..."}
	h := newTestServer(t, Deps{Drafter: drafter}).Router()

	rec := do(t, h, http.MethodPost, "/api/generate-email", `{"productInput":"Cisco WS-C2960X-48FPD-L"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Dear Sales Team,\n\nPlease quote...", body["email"])
	assert.Equal(t, []string{"Cisco WS-C2960X-48FPD-L"}, drafter.got)
}

func TestGenerateEmail_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"blank input", `{"productInput":"   "}`, quote.MsgProductRequired},
		{"missing field", `{}`, quote.MsgProductRequired},
		{"empty body", "", quote.MsgProductRequired},
		{"malformed json", `{"productInput":`, MsgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafter := &fakeDrafter{}
			h := newTestServer(t, Deps{Drafter: drafter}).Router()

			rec := do(t, h, http.MethodPost, "/api/generate-email", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
			assert.Empty(t, drafter.got)
		})
	}
}

func TestGenerateEmail_DrafterFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"classified", apperr.Upstream(quote.MsgDraftFailed, errors.New("status 503: secret detail"))},
		{"unclassified", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, Deps{Drafter: &fakeDrafter{err: tt.err}}).Router()

			rec := do(t, h, http.MethodPost, "/api/generate-email", `{"productInput":"Cisco switch 48 ports"}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, quote.MsgDraftFailed, errorOf(t, rec))
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}

func TestFindSuppliers_SingleShape(t *testing.T) {
	disc := &fakeDiscoverer{results: []discovery.Result{{
		Product:          "Cisco WS-C2960X-48FPD-L",
		Suppliers:        []string{"sales@cisco.com", "br@cisco.com"},
		ChatGPTEmails:    []string{"sales@cisco.com"},
		RegisteredEmails: []string{"br@cisco.com"},
	}}}
	h := newTestServer(t, Deps{Discoverer: disc}).Router()

	rec := do(t, h, http.MethodPost, "/api/find-suppliers", `{"productInput":"Cisco WS-C2960X-48FPD-L"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "multipleProducts")
	assert.NotContains(t, body, "product")
	assert.Equal(t, []any{"sales@cisco.com", "br@cisco.com"}, body["suppliers"])
	assert.Equal(t, []any{"sales@cisco.com"}, body["chatGptEmails"])
	assert.Equal(t, []any{"br@cisco.com"}, body["registeredEmails"])
}

func TestFindSuppliers_BatchShape(t *testing.T) {
	disc := &fakeDiscoverer{results: []discovery.Result{
		{Product: "Cisco WS-C2960X-48FPD-L", Suppliers: []string{}, ChatGPTEmails: []string{}, RegisteredEmails: []string{}},
		{Product: "Dell PowerEdge R740 server", Suppliers: []string{}, ChatGPTEmails: []string{}, RegisteredEmails: []string{}},
	}}
	h := newTestServer(t, Deps{Discoverer: disc}).Router()

	rec := do(t, h, http.MethodPost, "/api/find-suppliers", `{"productInput":"a\nb"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body discovery.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.MultipleProducts)
	assert.Equal(t, 2, body.TotalProducts)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "Dell PowerEdge R740 server", body.Results[1].Product)
}

func TestFindSuppliers_Errors(t *testing.T) {
	h := newTestServer(t, Deps{Discoverer: &fakeDiscoverer{}}).Router()
	rec := do(t, h, http.MethodPost, "/api/find-suppliers", `{"productInput":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, discovery.MsgProductRequired, errorOf(t, rec))

	h = newTestServer(t, Deps{Discoverer: &fakeDiscoverer{err: context.Canceled}}).Router()
	rec = do(t, h, http.MethodPost, "/api/find-suppliers", `{"productInput":"Cisco switch 48 ports"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgDiscoverFailed, errorOf(t, rec))
}

func TestFindSuppliers_RequestTimeoutReturnsPartialBatch(t *testing.T) {
	const (
		fast  = "Cisco Catalyst C9300-48P switch"
		stall = "Dell PowerEdge R750 server 2U"
		late  = "HP ProLiant DL380 Gen10 server"
	)
	disc := discovery.New(
		stallingCompleter{reply: "vendas@fornecedor.com", stall: stall},
		staticEmails{"cadastro@fornecedor.com"},
	)
	h := newTestServer(t, Deps{Discoverer: disc, RequestTimeout: 100 * time.Millisecond}).Router()

	rec := do(t, h, http.MethodPost, "/api/find-suppliers",
		`{"productInput":"`+fast+`\n`+stall+`\n`+late+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body discovery.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.MultipleProducts)
	assert.Equal(t, 3, body.TotalProducts)
	require.Len(t, body.Results, 3)

	assert.Equal(t, fast, body.Results[0].Product)
	assert.Equal(t, []string{"vendas@fornecedor.com"}, body.Results[0].ChatGPTEmails)
	for _, r := range body.Results[1:] {
		assert.Empty(t, r.ChatGPTEmails, r.Product)
		assert.Equal(t, []string{"cadastro@fornecedor.com"}, r.Suppliers, r.Product)
	}
}

func TestSuppliers_Lifecycle(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()

	rec := do(t, h, http.MethodPost, "/api/suppliers", `{"manufacturer":"Cisco","email":"sales@cisco.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := supplierOf(t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"sales@cisco.com"}, created.Emails)

	rec = do(t, h, http.MethodPost, "/api/suppliers", `{"manufacturer":"cisco","email":" br@cisco.com "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sales@cisco.com", "br@cisco.com"}, supplierOf(t, rec).Emails)

	rec = do(t, h, http.MethodPost, "/api/suppliers", `{"manufacturer":"CISCO","email":"sales@cisco.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, directory.MsgDuplicateForMfr, errorOf(t, rec))

	path := "/api/suppliers/" + created.ID
	rec = do(t, h, http.MethodPost, path+"/emails", `{"email":"ops@cisco.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sales@cisco.com", "br@cisco.com", "ops@cisco.com"}, supplierOf(t, rec).Emails)

	rec = do(t, h, http.MethodPost, path+"/emails", `{"email":"ops@cisco.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, directory.MsgDuplicateForSup, errorOf(t, rec))

	rec = do(t, h, http.MethodDelete, path+"/emails/br%40cisco.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sales@cisco.com", "ops@cisco.com"}, supplierOf(t, rec).Emails)

	rec = do(t, h, http.MethodDelete, path+"/emails/br%40cisco.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, directory.MsgEmailNotFound, errorOf(t, rec))

	rec = do(t, h, http.MethodGet, "/api/suppliers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Supplier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Cisco", list[0].Manufacturer)

	rec = do(t, h, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, directory.MsgDeleted, msg["message"])

	rec = do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, directory.MsgNotFound, errorOf(t, rec))

	rec = do(t, h, http.MethodGet, "/api/suppliers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSuppliers_ValidationMessages(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"missing manufacturer", "/api/suppliers", `{"email":"a@b.com"}`, directory.MsgRequiredFields},
		{"blank manufacturer", "/api/suppliers", `{"manufacturer":"  ","email":"a@b.com"}`, directory.MsgRequiredFields},
		{"missing email", "/api/suppliers", `{"manufacturer":"Acme"}`, directory.MsgRequiredFields},
		{"malformed email", "/api/suppliers", `{"manufacturer":"Acme","email":"not-an-email"}`, MsgInvalidEmail},
		{"add email missing", "/api/suppliers/any/emails", `{}`, directory.MsgEmailRequired},
		{"add email malformed", "/api/suppliers/any/emails", `{"email":"nope"}`, MsgInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
		})
	}
}

func TestSuppliers_UnknownID(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()

	rec := do(t, h, http.MethodPost, "/api/suppliers/missing/emails", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, directory.MsgNotFound, errorOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/api/suppliers/missing/emails/a%40b.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, directory.MsgNotFound, errorOf(t, rec))
}

func TestSuppliers_DirectoryDown(t *testing.T) {
	broken := brokenDirectory{err: apperr.Storage(directory.MsgAddFailed, errors.New("server selection timeout"))}
	h := newTestServer(t, Deps{Directory: broken}).Router()

	rec := do(t, h, http.MethodGet, "/api/suppliers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/suppliers", `{"manufacturer":"Acme","email":"a@acme.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, directory.MsgAddFailed, errorOf(t, rec))
	assert.NotContains(t, rec.Body.String(), "server selection")
}

func TestStaticPages(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", `id="product-input"`},
		{"/cadastro-fornecedor", "text/html", `id="supplier-form"`},
		{"/static/script.js", "javascript", "/api/find-suppliers"},
		{"/static/suppliers.js", "javascript", "/api/suppliers"},
		{"/static/style.css", "text/css", ".notification"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}

	rec := do(t, h, http.MethodGet, "/static/missing.js", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	h := newTestServer(t, Deps{Metrics: m}).Router()

	do(t, h, http.MethodGet, "/health", "")
	do(t, h, http.MethodGet, "/health", "")
	do(t, h, http.MethodPost, "/api/generate-email", `{}`)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/health", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/generate-email", http.MethodPost, "400")))

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quote_http_requests_total")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	h := newTestServer(t, Deps{}).Router()
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
