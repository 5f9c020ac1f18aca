package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/middleware"
	"github.com/somchai/helpdesk/internal/model"
)

// mockRepairAPI はRepairAPIのモック。
type mockRepairAPI struct {
	listRepairsFn        func(ctx context.Context, token string, filter backend.RepairFilter) ([]model.RepairTicket, error)
	getRepairFn          func(ctx context.Context, token string, id int) (*model.RepairTicket, error)
	createRepairFn       func(ctx context.Context, token string, in backend.CreateRepairInput) (*model.RepairTicket, error)
	updateRepairStatusFn func(ctx context.Context, token string, id int, in backend.UpdateRepairStatusInput) (*model.RepairTicket, error)
}

func (m *mockRepairAPI) ListRepairs(ctx context.Context, token string, filter backend.RepairFilter) ([]model.RepairTicket, error) {
	if m.listRepairsFn != nil {
		return m.listRepairsFn(ctx, token, filter)
	}
	return nil, nil
}

func (m *mockRepairAPI) GetRepair(ctx context.Context, token string, id int) (*model.RepairTicket, error) {
	if m.getRepairFn != nil {
		return m.getRepairFn(ctx, token, id)
	}
	return &model.RepairTicket{ID: id}, nil
}

func (m *mockRepairAPI) CreateRepair(ctx context.Context, token string, in backend.CreateRepairInput) (*model.RepairTicket, error) {
	if m.createRepairFn != nil {
		return m.createRepairFn(ctx, token, in)
	}
	return &model.RepairTicket{ID: 1, Title: in.Title}, nil
}

func (m *mockRepairAPI) UpdateRepairStatus(ctx context.Context, token string, id int, in backend.UpdateRepairStatusInput) (*model.RepairTicket, error) {
	if m.updateRepairStatusFn != nil {
		return m.updateRepairStatusFn(ctx, token, id, in)
	}
	return &model.RepairTicket{ID: id, Status: model.RepairStatus(in.Status)}, nil
}

// passthroughSanitizer はテスト用の無加工サニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) SanitizeText(raw string) string { return raw }

func sessionRequest(method, target string, body string, sess *model.Session) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sess != nil {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), sess))
	}
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func userSession() *model.Session {
	return &model.Session{ID: "s1", UserID: "7", Role: model.RoleUser, Token: "T", ExpiresAt: time.Now().Add(time.Hour)}
}

func itSession() *model.Session {
	return &model.Session{ID: "s2", UserID: "3", Role: model.RoleIT, Token: "T", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestRepairHandler_ListRepairs_FiltersByRole(t *testing.T) {
	tests := []struct {
		name         string
		sess         *model.Session
		wantReporter string
	}{
		{name: "一般ユーザーは自分の起票分に絞る", sess: userSession(), wantReporter: "7"},
		{name: "IT担当は全件", sess: itSession(), wantReporter: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter backend.RepairFilter
			api := &mockRepairAPI{
				listRepairsFn: func(ctx context.Context, token string, filter backend.RepairFilter) ([]model.RepairTicket, error) {
					gotFilter = filter
					return []model.RepairTicket{}, nil
				},
			}
			h := NewRepairHandler(api, passthroughSanitizer{})

			req := sessionRequest(http.MethodGet, "/api/repairs?status=pending", "", tt.sess)
			rec := httptest.NewRecorder()

			h.ListRepairs(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if gotFilter.ReporterID != tt.wantReporter {
				t.Errorf("ReporterID = %q, want %q", gotFilter.ReporterID, tt.wantReporter)
			}
			if gotFilter.Status != "pending" {
				t.Errorf("Status = %q, want pending", gotFilter.Status)
			}
		})
	}
}

func TestRepairHandler_ListRepairs_RejectsUnknownStatus(t *testing.T) {
	h := NewRepairHandler(&mockRepairAPI{}, passthroughSanitizer{})

	req := sessionRequest(http.MethodGet, "/api/repairs?status=bogus", "", itSession())
	rec := httptest.NewRecorder()

	h.ListRepairs(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRepairHandler_GetRepair_OwnershipCheck(t *testing.T) {
	api := &mockRepairAPI{
		getRepairFn: func(ctx context.Context, token string, id int) (*model.RepairTicket, error) {
			return &model.RepairTicket{ID: id, ReporterID: 99}, nil
		},
	}
	h := NewRepairHandler(api, passthroughSanitizer{})

	t.Run("他人のチケットは403", func(t *testing.T) {
		req := withURLParam(sessionRequest(http.MethodGet, "/api/repairs/5", "", userSession()), "id", "5")
		rec := httptest.NewRecorder()

		h.GetRepair(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("IT担当は他人のチケットも閲覧可", func(t *testing.T) {
		req := withURLParam(sessionRequest(http.MethodGet, "/api/repairs/5", "", itSession()), "id", "5")
		rec := httptest.NewRecorder()

		h.GetRepair(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRepairHandler_CreateRepair(t *testing.T) {
	t.Run("サニタイズして作成", func(t *testing.T) {
		var gotInput backend.CreateRepairInput
		api := &mockRepairAPI{
			createRepairFn: func(ctx context.Context, token string, in backend.CreateRepairInput) (*model.RepairTicket, error) {
				gotInput = in
				return &model.RepairTicket{ID: 1, Title: in.Title}, nil
			},
		}
		h := NewRepairHandler(api, stripTagsSanitizer{})

		body := `{"title":"<b>จอเสีย</b>","description":"เปิดไม่ติด","department_id":2,"priority":"high"}`
		req := sessionRequest(http.MethodPost, "/api/repairs", body, userSession())
		rec := httptest.NewRecorder()

		h.CreateRepair(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if gotInput.Title != "จอเสีย" {
			t.Errorf("Title = %q, want sanitized", gotInput.Title)
		}
	})

	t.Run("必須項目欠落は400", func(t *testing.T) {
		h := NewRepairHandler(&mockRepairAPI{}, passthroughSanitizer{})

		body := `{"description":"เปิดไม่ติด","department_id":2}`
		req := sessionRequest(http.MethodPost, "/api/repairs", body, userSession())
		rec := httptest.NewRecorder()

		h.CreateRepair(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("不正な優先度は400", func(t *testing.T) {
		h := NewRepairHandler(&mockRepairAPI{}, passthroughSanitizer{})

		body := `{"title":"จอเสีย","description":"x","department_id":2,"priority":"asap"}`
		req := sessionRequest(http.MethodPost, "/api/repairs", body, userSession())
		rec := httptest.NewRecorder()

		h.CreateRepair(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// stripTagsSanitizer はタグ除去を模すテスト用サニタイザー。
type stripTagsSanitizer struct{}

func (stripTagsSanitizer) SanitizeText(raw string) string {
	s := strings.ReplaceAll(raw, "<b>", "")
	return strings.ReplaceAll(s, "</b>", "")
}

func TestRepairHandler_UpdateRepairStatus(t *testing.T) {
	t.Run("既知のステータスで更新", func(t *testing.T) {
		var gotInput backend.UpdateRepairStatusInput
		api := &mockRepairAPI{
			updateRepairStatusFn: func(ctx context.Context, token string, id int, in backend.UpdateRepairStatusInput) (*model.RepairTicket, error) {
				gotInput = in
				return &model.RepairTicket{ID: id, Status: model.RepairStatus(in.Status)}, nil
			},
		}
		h := NewRepairHandler(api, passthroughSanitizer{})

		body := `{"status":"in_progress","note":"รับเรื่องแล้ว"}`
		req := withURLParam(sessionRequest(http.MethodPatch, "/api/repairs/5/status", body, itSession()), "id", "5")
		rec := httptest.NewRecorder()

		h.UpdateRepairStatus(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if gotInput.Status != "in_progress" {
			t.Errorf("Status = %q", gotInput.Status)
		}

		var ticket model.RepairTicket
		if err := json.Unmarshal(rec.Body.Bytes(), &ticket); err != nil {
			t.Fatalf("failed to parse body: %v", err)
		}
		if ticket.Status != model.RepairStatusInProgress {
			t.Errorf("ticket.Status = %q", ticket.Status)
		}
	})

	t.Run("未知のステータスは400", func(t *testing.T) {
		h := NewRepairHandler(&mockRepairAPI{}, passthroughSanitizer{})

		body := `{"status":"done"}`
		req := withURLParam(sessionRequest(http.MethodPatch, "/api/repairs/5/status", body, itSession()), "id", "5")
		rec := httptest.NewRecorder()

		h.UpdateRepairStatus(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("IDが数値でない場合は400", func(t *testing.T) {
		h := NewRepairHandler(&mockRepairAPI{}, passthroughSanitizer{})

		req := withURLParam(sessionRequest(http.MethodPatch, "/api/repairs/abc/status", `{"status":"pending"}`, itSession()), "id", "abc")
		rec := httptest.NewRecorder()

		h.UpdateRepairStatus(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRepairHandler_BackendErrorPassthrough(t *testing.T) {
	api := &mockRepairAPI{
		listRepairsFn: func(ctx context.Context, token string, filter backend.RepairFilter) ([]model.RepairTicket, error) {
			return nil, &backend.Error{Kind: backend.KindGeneric, StatusCode: http.StatusServiceUnavailable, Message: "maintenance"}
		},
	}
	h := NewRepairHandler(api, passthroughSanitizer{})

	req := sessionRequest(http.MethodGet, "/api/repairs", "", itSession())
	rec := httptest.NewRecorder()

	h.ListRepairs(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body apiErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body.Code != model.ErrCodeBackend {
		t.Errorf("code = %q, want BACKEND_ERROR", body.Code)
	}
	if !strings.Contains(body.Message, "maintenance") {
		t.Errorf("message = %q, want backend message surfaced", body.Message)
	}
}
