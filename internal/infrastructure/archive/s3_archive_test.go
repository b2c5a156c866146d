package archive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ tms.InvoiceArchive = (*S3Archive)(nil)

func validConfig(endpoint string) *config.ArchiveConfig {
	return &config.ArchiveConfig{
		Enabled:      true,
		Endpoint:     endpoint,
		Bucket:       "tms-invoices",
		Prefix:       "/invoices/",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3Archive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Archive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := validConfig("")
		cfg.Bucket = ""
		_, err := NewS3Archive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		cfg := validConfig("")
		cfg.AccessKey = ""
		_, err := NewS3Archive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		cfg := validConfig("")
		cfg.SecretKey = ""
		_, err := NewS3Archive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates archive", func(t *testing.T) {
		a, err := NewS3Archive(validConfig("minio:9000"), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "tms-invoices", a.Bucket())
		assert.Equal(t, 15*time.Minute, a.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		want     string
		wantErr  bool
	}{
		{name: "default", want: "http://localhost:9000"},
		{name: "bare host", endpoint: "minio:9000", want: "http://minio:9000"},
		{name: "bare host with ssl", endpoint: "s3.amazonaws.com", useSSL: true, want: "https://s3.amazonaws.com"},
		{name: "explicit scheme kept", endpoint: "https://objects.example.com", want: "https://objects.example.com"},
		{name: "missing host", endpoint: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3Archive_ObjectKey(t *testing.T) {
	a, err := NewS3Archive(validConfig(""))
	require.NoError(t, err)

	tenantID := uuid.MustParse("7f1d3c7e-2a4b-4a4e-9a57-0f3c1b9e2d11")
	assert.Equal(t,
		"invoices/7f1d3c7e-2a4b-4a4e-9a57-0f3c1b9e2d11/INV-2026-0001.json",
		a.ObjectKey(tenantID, "INV-2026-0001"),
	)
}

// fakeS3 records PUT requests and answers HEAD for stored keys
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headers map[string]http.Header
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	f := &fakeS3{objects: map[string][]byte{}, headers: map[string]http.Header{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[r.URL.Path] = body
			f.headers[r.URL.Path] = r.Header.Clone()
			w.WriteHeader(http.StatusOK)
		case http.MethodHead:
			if _, ok := f.objects[r.URL.Path]; ok {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func TestS3Archive_ArchiveInvoice(t *testing.T) {
	fake, srv := newFakeS3(t)
	a, err := NewS3Archive(validConfig(srv.URL))
	require.NoError(t, err)

	tenantID := uuid.New()
	loadID := uuid.New()
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	inv, err := finance.NewInvoice(tenantID, "INV-2026-0007", []uuid.UUID{loadID}, "Acme Freight",
		finance.InvoiceTerms{Amount: decimal.RequireFromString("2450.50"), Status: finance.InvoiceStatusPending, DueDate: &due})
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := a.Exists(ctx, tenantID, inv.InvoiceNumber)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, a.ArchiveInvoice(ctx, inv))

	objectPath := "/tms-invoices/" + a.ObjectKey(tenantID, inv.InvoiceNumber)
	fake.mu.Lock()
	body, ok := fake.objects[objectPath]
	header := fake.headers[objectPath]
	fake.mu.Unlock()
	require.True(t, ok, "expected PUT to %s", objectPath)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, inv.ID.String(), header.Get("X-Amz-Meta-Invoice-Id"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "INV-2026-0007", doc["invoice_number"])
	assert.Equal(t, "2450.5", doc["amount"])
	assert.Equal(t, "pending", doc["status"])
	assert.Equal(t, "Acme Freight", doc["customer_name"])
	assert.Equal(t, []any{loadID.String()}, doc["load_ids"])

	exists, err = a.Exists(ctx, tenantID, inv.InvoiceNumber)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestS3Archive_ArchiveInvoice_Rejects(t *testing.T) {
	a, err := NewS3Archive(validConfig(""))
	require.NoError(t, err)

	assert.Error(t, a.ArchiveInvoice(context.Background(), nil))
	assert.Error(t, a.ArchiveInvoice(context.Background(), &finance.Invoice{}))
}

func TestS3Archive_DownloadURL(t *testing.T) {
	a, err := NewS3Archive(validConfig("minio:9000"), WithPresignExpiration(5*time.Minute))
	require.NoError(t, err)

	tenantID := uuid.New()
	before := time.Now()
	u, expiresAt, err := a.DownloadURL(context.Background(), tenantID, "INV-2026-0001")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://minio:9000/tms-invoices/invoices/"+tenantID.String()+"/INV-2026-0001.json?"))
	assert.Contains(t, u, "X-Amz-Expires=300")
	assert.WithinDuration(t, before.Add(5*time.Minute), expiresAt, time.Second)

	_, _, err = a.DownloadURL(context.Background(), tenantID, "")
	assert.Error(t, err)
}
