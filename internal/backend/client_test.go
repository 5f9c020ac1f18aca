package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
	return c, srv
}

func TestClient_AttachesBearerTokenWhenPresent(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	if _, err := c.ListRepairs(context.Background(), "my-token", RepairFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer my-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer my-token")
	}
}

func TestClient_NoBearerHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"auth_url":"https://access.line.me/oauth2/v2.1/authorize","state":"s"}`))
	})

	if _, err := c.GetLineAuthURL(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hasAuth {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClient_ClassifiesErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "already linkedはKindConflictになる",
			status:   http.StatusConflict,
			body:     `{"message":"Error: already linked to another account"}`,
			wantKind: KindConflict,
			wantMsg:  "Error: already linked to another account",
		},
		{
			name:     "expiredはKindExpiredになる",
			status:   http.StatusBadRequest,
			body:     `{"message":"verification token expired"}`,
			wantKind: KindExpired,
			wantMsg:  "verification token expired",
		},
		{
			name:     "その他のメッセージはKindGeneric",
			status:   http.StatusBadRequest,
			body:     `{"message":"invalid request"}`,
			wantKind: KindGeneric,
			wantMsg:  "invalid request",
		},
		{
			name:     "非JSONボディは一般メッセージに正規化される",
			status:   http.StatusBadGateway,
			body:     `<html>502 Bad Gateway</html>`,
			wantKind: KindGeneric,
			wantMsg:  genericErrorMessage,
		},
		{
			name:     "空ボディは一般メッセージに正規化される",
			status:   http.StatusInternalServerError,
			body:     "",
			wantKind: KindGeneric,
			wantMsg:  genericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := c.VerifyLinking(context.Background(), "tok", LinkingVerifyRequest{
				UserID: "7", LineUserID: "U1", VerificationToken: "vt",
			})
			if err == nil {
				t.Fatal("expected error")
			}

			be, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *backend.Error, got %T", err)
			}
			if be.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", be.Kind, tt.wantKind)
			}
			if be.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", be.Message, tt.wantMsg)
			}
			if be.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", be.StatusCode, tt.status)
			}
		})
	}
}

func TestClient_TransportErrorIsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close() // 接続不能にする

	c := New(Config{BaseURL: baseURL, Timeout: time.Second})

	_, err := c.GetLineAuthURL(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	be, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *backend.Error, got %T", err)
	}
	if be.Kind != KindGeneric {
		t.Errorf("Kind = %v, want KindGeneric", be.Kind)
	}
	if be.Message != genericErrorMessage {
		t.Errorf("Message = %q, want %q", be.Message, genericErrorMessage)
	}
	if be.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", be.StatusCode)
	}
}

func TestClient_LoginWithCode_SendsCodeAndState(t *testing.T) {
	var gotBody map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/line-callback" {
			t.Errorf("path = %q, want /api/auth/line-callback", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"T","userId":7,"role":"admin"}`))
	})

	res, err := c.LoginWithCode(context.Background(), "ABC123", "xyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["code"] != "ABC123" || gotBody["state"] != "xyz" {
		t.Errorf("request body = %v, want code=ABC123 state=xyz", gotBody)
	}
	if res.AccessToken != "T" {
		t.Errorf("AccessToken = %q, want T", res.AccessToken)
	}
	if res.UserID != "7" {
		t.Errorf("UserID = %q, want 7", res.UserID)
	}
	if res.Role != "admin" {
		t.Errorf("Role = %q, want admin", res.Role)
	}
}

func TestFlexibleID_AcceptsNumberAndString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlexibleID
	}{
		{name: "数値のuserIdを受け付ける", input: `{"userId":42}`, want: "42"},
		{name: "文字列のuserIdを受け付ける", input: `{"userId":"7"}`, want: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				UserID FlexibleID `json:"userId"`
			}
			if err := json.Unmarshal([]byte(tt.input), &out); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if out.UserID != tt.want {
				t.Errorf("UserID = %q, want %q", out.UserID, tt.want)
			}
		})
	}
}

func TestClient_VerifyLineCode_ReturnsLineUserID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/verify-line-code" {
			t.Errorf("path = %q, want /api/auth/verify-line-code", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lineUserId":"U1234567890"}`))
	})

	lineUserID, err := c.VerifyLineCode(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lineUserID != "U1234567890" {
		t.Errorf("lineUserID = %q, want U1234567890", lineUserID)
	}
}
