package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/internal/notify"
)

const fallbackEmail = "intakesmart@stelliformdigital.com"

func newTestHandler(repo leads.Repository, notifier notify.Notifier) *Handler {
	return NewHandler(NewService(repo, notifier, nil, nil), HandlerConfig{IntakeFallbackEmail: fallbackEmail}, nil)
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, SubmitResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
	return rec, resp
}

func TestPostContact_Success(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(repo, &fakeNotifier{})

	rec, resp := doRequest(t, h.PostContact, http.MethodPost, "/api/contact",
		`{"name":"Jane Doe","email":"jane@example.com","project":"SEO"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !resp.OK || resp.ID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 lead, got %d", repo.Len())
	}
	lead, err := repo.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if lead.Status != leads.StatusNew || lead.Medium != MediumContactForm {
		t.Fatalf("unexpected lead %+v", lead)
	}
}

func TestPostContact_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty name", `{"name":"","email":"a@b.com"}`, leads.MsgNameEmailRequired},
		{"missing email", `{"name":"Jane"}`, leads.MsgNameEmailRequired},
		{"no at sign", `{"name":"Jane","email":"jane.example.com"}`, leads.MsgInvalidEmail},
		{"no domain", `{"name":"Jane","email":"jane@"}`, leads.MsgInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newSpyRepository()
			h := newTestHandler(repo, &fakeNotifier{})

			rec, resp := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if resp.OK || resp.Error != tt.want {
				t.Fatalf("unexpected response %+v", resp)
			}
			if repo.creates != 0 {
				t.Fatalf("expected no store calls, got %d", repo.creates)
			}
		})
	}
}

func TestPostContact_MalformedJSONIs500(t *testing.T) {
	repo := newSpyRepository()
	h := newTestHandler(repo, &fakeNotifier{})

	rec, resp := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", `{"name":`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp.Error != ContactFailureMessage {
		t.Fatalf("unexpected error %q", resp.Error)
	}
	if repo.creates != 0 {
		t.Fatal("store must not be called")
	}
}

func TestPostContact_OversizedBodyIs500(t *testing.T) {
	h := NewHandler(NewService(newSpyRepository(), nil, nil, nil), HandlerConfig{MaxBodyBytes: 32}, nil)
	body := `{"name":"Jane","email":"jane@example.com","message":"` + strings.Repeat("x", 64) + `"}`

	rec, _ := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPostContact_StoreFailureIs500(t *testing.T) {
	repo := newSpyRepository()
	repo.createErr = errors.New("db down")
	h := newTestHandler(repo, &fakeNotifier{})

	rec, resp := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", `{"name":"Jane","email":"jane@example.com"}`)
	if rec.Code != http.StatusInternalServerError || resp.Error != ContactFailureMessage {
		t.Fatalf("unexpected %d %+v", rec.Code, resp)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatal("internal error leaked to client")
	}
}

func TestPostContact_DuplicateCreatesTwoLeads(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(repo, &fakeNotifier{})
	body := `{"name":"Jane Doe","email":"jane@example.com"}`

	_, first := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", body)
	_, second := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", body)
	if first.ID == second.ID {
		t.Fatal("expected distinct ids")
	}
	if repo.Len() != 2 {
		t.Fatalf("expected 2 leads, got %d", repo.Len())
	}
}

func TestPostContact_WebhookFailureStillSucceeds(t *testing.T) {
	tests := []struct {
		name   string
		server func() *httptest.Server
		closed bool
	}{
		{"non-2xx", func() *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
		}, false},
		{"network error", func() *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := tt.server()
			url := spy.URL
			if tt.closed {
				spy.Close()
			} else {
				defer spy.Close()
			}

			repo := leads.NewInMemoryRepository()
			notifier := notify.NewService(nil, notify.NewSlackNotifier(notify.SlackConfig{WebhookURL: url}, nil))
			h := newTestHandler(repo, notifier)

			rec, resp := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", `{"name":"Jane","email":"jane@example.com"}`)
			if rec.Code != http.StatusOK || !resp.OK || resp.ID == "" {
				t.Fatalf("expected success, got %d %+v", rec.Code, resp)
			}
			lead, _ := repo.GetByID(context.Background(), resp.ID)
			if lead.NotifiedAt == nil || lead.NotifyStatus != string(notify.StatusFailed) {
				t.Fatalf("expected failed attempt to be stamped, got %+v", lead)
			}
		})
	}
}

func TestPostContact_UnsetWebhookMakesNoCalls(t *testing.T) {
	var calls int32
	spy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer spy.Close()

	notifier := notify.NewService(nil, notify.NewSlackNotifier(notify.SlackConfig{HTTPClient: spy.Client()}, nil))
	h := newTestHandler(leads.NewInMemoryRepository(), notifier)

	rec, _ := doRequest(t, h.PostContact, http.MethodPost, "/api/contact", `{"name":"Jane","email":"jane@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected zero webhook calls, got %d", calls)
	}
}

func TestPostIntakeSmart_Success(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(repo, &fakeNotifier{})

	rec, resp := doRequest(t, h.PostIntakeSmart, http.MethodPost, "/api/intake-smart",
		`{"firstName":"Jane","lastName":"Doe","phone":"5551234567"}`)
	if rec.Code != http.StatusOK || !resp.OK {
		t.Fatalf("unexpected %d %+v", rec.Code, resp)
	}

	lead, err := repo.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if lead.Email != fallbackEmail {
		t.Fatalf("expected fallback email, got %q", lead.Email)
	}
	if !strings.Contains(lead.Project, "IntakeSmart") {
		t.Fatalf("expected IntakeSmart project, got %q", lead.Project)
	}
	if lead.Medium != MediumIntakeSmart {
		t.Fatalf("unexpected medium %q", lead.Medium)
	}
}

func TestPostIntakeSmart_ShortPhone(t *testing.T) {
	for _, phone := range []string{"555-123-456", "(555) 12 34", "+1 555"} {
		t.Run(phone, func(t *testing.T) {
			repo := newSpyRepository()
			h := newTestHandler(repo, &fakeNotifier{})
			body, _ := json.Marshal(map[string]string{"firstName": "Jane", "lastName": "Doe", "phone": phone})

			rec, resp := doRequest(t, h.PostIntakeSmart, http.MethodPost, "/api/intake-smart", string(body))
			if rec.Code != http.StatusBadRequest || resp.Error != leads.MsgInvalidPhone {
				t.Fatalf("unexpected %d %+v", rec.Code, resp)
			}
			if repo.creates != 0 {
				t.Fatal("store must not be called")
			}
		})
	}
}

func TestPostIntakeSmart_FailureMessage(t *testing.T) {
	repo := newSpyRepository()
	repo.createErr = errors.New("boom")
	h := newTestHandler(repo, &fakeNotifier{})

	rec, resp := doRequest(t, h.PostIntakeSmart, http.MethodPost, "/api/intake-smart",
		`{"firstName":"Jane","lastName":"Doe","phone":"5551234567"}`)
	if rec.Code != http.StatusInternalServerError || resp.Error != IntakeSmartFailureMessage {
		t.Fatalf("unexpected %d %+v", rec.Code, resp)
	}
}

func TestGetIntakeSmart(t *testing.T) {
	repo := newSpyRepository()
	h := newTestHandler(repo, &fakeNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/intake-smart", nil)
	rec := httptest.NewRecorder()
	h.GetIntakeSmart(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Info != IntakeSmartInfo || len(resp.Methods) != 1 || resp.Methods[0] != http.MethodPost {
		t.Fatalf("unexpected response %+v", resp)
	}
	if repo.creates != 0 {
		t.Fatal("GET must not create leads")
	}
}
