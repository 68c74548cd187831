package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pohualizcalli/academy-admin/internal/domain"
	"github.com/pohualizcalli/academy-admin/internal/middleware"
	"github.com/pohualizcalli/academy-admin/internal/service"
	"github.com/pohualizcalli/academy-admin/internal/transport"
	"go.uber.org/zap"
)

const testInternalHeader = "api-key-pohualizcalli"
const testInternalKey = "s3cret"

type stubSignatureService struct {
	listFn func(ctx context.Context) ([]domain.Signature, error)
}

func (s *stubSignatureService) Create(ctx context.Context, createdBy string, in service.SignatureInput) (*domain.Signature, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubSignatureService) List(ctx context.Context) ([]domain.Signature, error) {
	return s.listFn(ctx)
}

func (s *stubSignatureService) Get(ctx context.Context, id int) (*domain.Signature, error) {
	return nil, domain.ErrNotFound
}

func (s *stubSignatureService) Update(ctx context.Context, id int, in service.SignatureInput) (*domain.Signature, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubSignatureService) Delete(ctx context.Context, id int) error {
	return fmt.Errorf("not implemented")
}

type stubTemplateService struct {
	getActiveFn func(ctx context.Context) (*domain.Template, error)
}

func (s *stubTemplateService) Create(ctx context.Context, createdBy string, in service.TemplateInput) (*domain.Template, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubTemplateService) List(ctx context.Context) ([]domain.Template, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubTemplateService) Get(ctx context.Context, id int) (*domain.Template, error) {
	return nil, domain.ErrNotFound
}

func (s *stubTemplateService) GetActive(ctx context.Context) (*domain.Template, error) {
	return s.getActiveFn(ctx)
}

func (s *stubTemplateService) PresignDownload(ctx context.Context, id int, ttl time.Duration) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (s *stubTemplateService) SetActive(ctx context.Context, id int) (*domain.Template, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubTemplateService) Replace(ctx context.Context, id int, in service.TemplateInput) (*domain.Template, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubTemplateService) Delete(ctx context.Context, id int) error {
	return fmt.Errorf("not implemented")
}

type stubConfigurationService struct {
	getFn func(ctx context.Context) (*domain.Configuration, error)
}

func (s *stubConfigurationService) Get(ctx context.Context) (*domain.Configuration, error) {
	return s.getFn(ctx)
}

func (s *stubConfigurationService) Put(ctx context.Context, updatedBy string, mappings map[string]any) (*domain.Configuration, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubSecretReloader struct {
	reloadFn func(ctx context.Context) error
	loaded   bool
}

func (s *stubSecretReloader) Reload(ctx context.Context) error {
	return s.reloadFn(ctx)
}

func (s *stubSecretReloader) Loaded() bool {
	return s.loaded
}

type keyAuthenticator struct {
	key    string
	loaded bool
}

func (a *keyAuthenticator) Authenticate(provided string) error {
	if !a.loaded {
		return domain.ErrNotReady
	}
	if provided != a.key {
		return domain.ErrUnauthorized
	}
	return nil
}

// memoryBatchService mimics the real pipeline's callback semantics against an
// in-memory batch so worker flows can be exercised end to end.
type memoryBatchService struct {
	mu    sync.Mutex
	batch domain.DiplomaBatch
}

func (s *memoryBatchService) Submit(ctx context.Context, createdBy, fileName string, csvData []byte) (*domain.DiplomaBatch, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *memoryBatchService) List(ctx context.Context) ([]domain.DiplomaBatch, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *memoryBatchService) Get(ctx context.Context, id int) (*domain.DiplomaBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.batch.ID {
		return nil, domain.ErrNotFound
	}
	copied := s.batch
	return &copied, nil
}

func (s *memoryBatchService) ListStuck(ctx context.Context) ([]domain.DiplomaBatch, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *memoryBatchService) Update(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *memoryBatchService) ApplyWorkerUpdate(ctx context.Context, id int, patch domain.BatchPatch) (*domain.DiplomaBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no recognized fields to update", domain.ErrValidation)
	}
	if id != s.batch.ID {
		return nil, domain.ErrNotFound
	}
	if s.batch.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: batch %d is already %s", domain.ErrConflict, id, s.batch.Status)
	}

	if patch.Status != nil {
		s.batch.Status = *patch.Status
	}
	if patch.ZipURL != nil {
		s.batch.ZipURL = patch.ZipURL
	}
	if patch.ClearZipURL {
		s.batch.ZipURL = nil
	}
	if patch.TotalRecords != nil {
		s.batch.TotalRecords = *patch.TotalRecords
	}
	if patch.FileName != nil {
		s.batch.FileName = *patch.FileName
	}
	s.batch.UpdatedAt = time.Now().UTC()

	copied := s.batch
	return &copied, nil
}

func newInternalTestApp(t *testing.T, batches BatchService, auth middleware.Authenticator, reloader SecretReloader) *fiber.App {
	t.Helper()

	if batches == nil {
		batches = &memoryBatchService{}
	}
	if reloader == nil {
		reloader = &stubSecretReloader{reloadFn: func(ctx context.Context) error { return nil }, loaded: true}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	signatures := &stubSignatureService{listFn: func(ctx context.Context) ([]domain.Signature, error) {
		return []domain.Signature{{ID: 1, Name: "Firma", ProfessorName: "Dra. Reyes", URL: "https://resources.test/firma.png"}}, nil
	}}
	templates := &stubTemplateService{getActiveFn: func(ctx context.Context) (*domain.Template, error) {
		return nil, domain.ErrNotFound
	}}
	configs := &stubConfigurationService{getFn: func(ctx context.Context) (*domain.Configuration, error) {
		return &domain.Configuration{FieldMappings: map[string]any{}}, nil
	}}

	h, err := NewInternalHandler(batches, signatures, templates, configs, reloader, nil)
	if err != nil {
		t.Fatalf("NewInternalHandler() error = %v", err)
	}
	if err := RegisterInternalRoutes(app, h, middleware.InternalAuth(testInternalHeader, auth, nil)); err != nil {
		t.Fatalf("RegisterInternalRoutes() error = %v", err)
	}

	return app
}

func internalRequest(method, path, body, key string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if key != "" {
		req.Header.Set(testInternalHeader, key)
	}
	return req
}

func TestInternalIntegration_WorkerCallbackFlow(t *testing.T) {
	t.Parallel()

	batches := &memoryBatchService{batch: domain.DiplomaBatch{
		ID:        42,
		FileName:  "alumnos.csv",
		Status:    domain.BatchStatusReceived,
		UpdatedAt: time.Now().UTC().Add(-time.Minute),
	}}
	auth := &keyAuthenticator{key: testInternalKey, loaded: true}
	app := newInternalTestApp(t, batches, auth, nil)

	before := batches.batch.UpdatedAt

	// Worker picks the batch up.
	resp, body := doRequest(t, app, internalRequest(http.MethodPatch, "/internal/diploma-batches/42", `{"status":"processing"}`, testInternalKey))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	// Worker finishes, reporting in the legacy vocabulary.
	completeBody := `{"status":"completado","zipUrl":"https://resources.test/proceso-42/diplomas.zip","totalRecords":3}`
	resp, body = doRequest(t, app, internalRequest(http.MethodPatch, "/internal/diploma-batches/42", completeBody, testInternalKey))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["status"] != "completed" {
		t.Fatalf("status = %v, want canonical completed", parsed["status"])
	}
	if parsed["totalRecords"] != float64(3) {
		t.Fatalf("totalRecords = %v, want 3", parsed["totalRecords"])
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, parsed["updatedAt"].(string))
	if err != nil {
		t.Fatalf("updatedAt parse error = %v", err)
	}
	if !updatedAt.After(before) {
		t.Fatalf("updatedAt = %v, want strictly after %v", updatedAt, before)
	}

	// A late callback after completion is a conflict, not an overwrite.
	resp, _ = doRequest(t, app, internalRequest(http.MethodPatch, "/internal/diploma-batches/42", `{"status":"processing"}`, testInternalKey))
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409 for terminal batch", resp.StatusCode)
	}
}

func TestInternalIntegration_WorkerCallbackRejections(t *testing.T) {
	t.Parallel()

	batches := &memoryBatchService{batch: domain.DiplomaBatch{ID: 42, Status: domain.BatchStatusReceived}}
	auth := &keyAuthenticator{key: testInternalKey, loaded: true}
	app := newInternalTestApp(t, batches, auth, nil)

	// Unknown batch.
	resp, _ := doRequest(t, app, internalRequest(http.MethodPatch, "/internal/diploma-batches/999", `{"status":"processing"}`, testInternalKey))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404 for unknown batch", resp.StatusCode)
	}

	// Patch with only unknown fields.
	resp, _ = doRequest(t, app, internalRequest(http.MethodPatch, "/internal/diploma-batches/42", `{"somethingElse":true}`, testInternalKey))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty effective patch", resp.StatusCode)
	}

	// Wrong key.
	resp, _ = doRequest(t, app, internalRequest(http.MethodPatch, "/internal/diploma-batches/42", `{"status":"processing"}`, "wrong"))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for wrong key", resp.StatusCode)
	}
}

func TestInternalIntegration_KeyNeverLoaded(t *testing.T) {
	t.Parallel()

	auth := &keyAuthenticator{key: testInternalKey, loaded: false}
	app := newInternalTestApp(t, nil, auth, nil)

	// Even the right key gets 503 when the secret never loaded: the service
	// cannot tell right from wrong without it.
	resp, _ := doRequest(t, app, internalRequest(http.MethodGet, "/internal/configuration", "", testInternalKey))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when key never loaded", resp.StatusCode)
	}
}

func TestInternalIntegration_ReloadAPIKey(t *testing.T) {
	t.Parallel()

	reloader := &stubSecretReloader{
		reloadFn: func(ctx context.Context) error { return nil },
		loaded:   true,
	}
	auth := &keyAuthenticator{key: testInternalKey, loaded: true}
	app := newInternalTestApp(t, nil, auth, reloader)

	resp, body := doRequest(t, app, internalRequest(http.MethodPost, "/internal/reload-api-key", "", testInternalKey))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["success"] != true || parsed["loaded"] != true {
		t.Fatalf("body = %v, want success and loaded true", parsed)
	}
}

func TestInternalIntegration_ReloadAPIKeyRequiresKey(t *testing.T) {
	t.Parallel()

	reloadCalls := 0
	reloader := &stubSecretReloader{
		reloadFn: func(ctx context.Context) error {
			reloadCalls++
			return nil
		},
		loaded: true,
	}
	auth := &keyAuthenticator{key: testInternalKey, loaded: true}
	app := newInternalTestApp(t, nil, auth, reloader)

	// The reload endpoint sits behind the shared secret like the rest of the
	// worker surface; no credential must never trigger a parameter store read.
	resp, _ := doRequest(t, app, internalRequest(http.MethodPost, "/internal/reload-api-key", "", ""))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without key", resp.StatusCode)
	}
	if reloadCalls != 0 {
		t.Fatalf("reload calls = %d, want 0 for rejected request", reloadCalls)
	}

	resp, _ = doRequest(t, app, internalRequest(http.MethodPost, "/internal/reload-api-key", "", "wrong"))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for wrong key", resp.StatusCode)
	}
	if reloadCalls != 0 {
		t.Fatalf("reload calls = %d, want 0 for rejected request", reloadCalls)
	}
}

func TestInternalIntegration_ReloadAPIKeyFailure(t *testing.T) {
	t.Parallel()

	reloader := &stubSecretReloader{
		reloadFn: func(ctx context.Context) error { return domain.ErrSecretUnavailable },
		loaded:   false,
	}
	auth := &keyAuthenticator{key: testInternalKey, loaded: true}
	app := newInternalTestApp(t, nil, auth, reloader)

	resp, body := doRequest(t, app, internalRequest(http.MethodPost, "/internal/reload-api-key", "", testInternalKey))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 for failed reload", resp.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["success"] != false || parsed["loaded"] != false {
		t.Fatalf("body = %v, want success and loaded false", parsed)
	}
}

func TestInternalIntegration_WorkerReads(t *testing.T) {
	t.Parallel()

	auth := &keyAuthenticator{key: testInternalKey, loaded: true}
	app := newInternalTestApp(t, nil, auth, nil)

	// Configuration falls back to an empty mapping document.
	resp, body := doRequest(t, app, internalRequest(http.MethodGet, "/internal/configuration", "", testInternalKey))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var cfg map[string]any
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	mappings, ok := cfg["fieldMappings"].(map[string]any)
	if !ok || len(mappings) != 0 {
		t.Fatalf("fieldMappings = %v, want empty object", cfg["fieldMappings"])
	}

	// Signature listing arrives wrapped, the shape the worker already parses.
	resp, body = doRequest(t, app, internalRequest(http.MethodGet, "/internal/signatures", "", testInternalKey))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var wrapped struct {
		Signatures []map[string]any `json:"signatures"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(wrapped.Signatures) != 1 || wrapped.Signatures[0]["professorName"] != "Dra. Reyes" {
		t.Fatalf("signatures = %v, want one entry for Dra. Reyes", wrapped.Signatures)
	}

	// No active template yet.
	resp, _ = doRequest(t, app, internalRequest(http.MethodGet, "/internal/templates/active", "", testInternalKey))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404 when no template is active", resp.StatusCode)
	}
}
