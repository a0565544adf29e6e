package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/clock"
	"github.com/shandysiswandi/otpsession/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpsession/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsession/internal/pkg/lock"
	"github.com/shandysiswandi/otpsession/internal/pkg/otp"
	"github.com/shandysiswandi/otpsession/internal/pkg/router"
	"github.com/shandysiswandi/otpsession/internal/pkg/uid"
	"github.com/shandysiswandi/otpsession/internal/pkg/validator"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
	"github.com/shandysiswandi/otpsession/internal/session/outbound/memdb"
	"github.com/shandysiswandi/otpsession/internal/session/usecase"
)

type server struct {
	h     http.Handler
	db    *memdb.DB
	clock *clock.Frozen
}

func newServer(t *testing.T) *server {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	seq, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	secret, err := otp.NewRandom(32, 6)
	if err != nil {
		t.Fatalf("otp: %v", err)
	}

	s := &server{
		db:    memdb.New(),
		clock: clock.NewFrozen(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	mgr := goroutine.NewManager(4)
	t.Cleanup(func() { _ = mgr.Wait() })

	uc := usecase.New(usecase.Dependency{
		RepoDB:     s.db,
		Locker:     lock.NewLocal(lock.Options{}),
		Validator:  v,
		Clock:      s.clock,
		UUID:       uid.NewUUID(),
		Seq:        seq,
		Secret:     secret,
		Instrument: instrument.NewNoop(),
		Goroutine:  mgr,
		Policy:     entity.DefaultPolicy(),
	})

	r := router.NewRouter(router.Config{UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc)
	s.h = r

	return s
}

func (s *server) do(t *testing.T, method, target, body, token string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

// code reads the OTP of a session straight from storage.
func (s *server) code(t *testing.T, prefixed string) string {
	t.Helper()

	id, err := entity.ParseID(entity.PrefixSession, prefixed)
	if err != nil {
		t.Fatalf("ParseID(%q) error = %v", prefixed, err)
	}
	ss, err := s.db.GetSessionByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSessionByID() error = %v", err)
	}
	return ss.OTPCode
}

func (s *server) status(t *testing.T, prefixed string) entity.SessionStatus {
	t.Helper()

	id, _ := entity.ParseID(entity.PrefixSession, prefixed)
	ss, err := s.db.GetSessionByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetSessionByID() error = %v", err)
	}
	return ss.Status
}

func assertError(t *testing.T, gotCode int, body map[string]any, wantCode int, wantMsg string) {
	t.Helper()
	if gotCode != wantCode || body["error"] != wantMsg {
		t.Fatalf("got %d %v, want %d %q", gotCode, body, wantCode, wantMsg)
	}
}

const otherDevice = `{"user":{"email":"a@x.com"},"device":{"type":"othr"}}`

func TestObtainSessionHTTP(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodPost, "/session/", otherDevice, "")
	if code != http.StatusCreated {
		t.Fatalf("first POST = %d %v", code, body)
	}
	if body["status"] != "pending" || body["is_new_user"] != true || body["is_new_device"] != true {
		t.Fatalf("first POST body = %v", body)
	}
	first, _ := body["uuid"].(string)
	if !strings.HasPrefix(first, "ses-") {
		t.Fatalf("session uuid = %q", first)
	}
	user, _ := body["user"].(map[string]any)
	if !strings.HasPrefix(user["uuid"].(string), "usr-") || user["email"] != "a@x.com" {
		t.Fatalf("user = %v", user)
	}
	device, _ := body["device"].(map[string]any)
	if !strings.HasPrefix(device["uuid"].(string), "dev-") || device["type"] != "othr" {
		t.Fatalf("device = %v", device)
	}
	if _, ok := device["vendor_uuid"]; ok {
		t.Fatalf("othr device must not carry vendor_uuid: %v", device)
	}
	if tok, _ := body["token"].(string); len(tok) < 27 {
		t.Fatalf("token %q looks too short", tok)
	}

	s.clock.Advance(4 * time.Minute)
	code, body = s.do(t, http.MethodPost, "/session/", otherDevice, "")
	if code != http.StatusOK || body["uuid"] != first || body["is_new_user"] != true {
		t.Fatalf("reuse POST = %d %v", code, body)
	}

	s.clock.Advance(2 * time.Minute)
	code, body = s.do(t, http.MethodPost, "/session/", otherDevice, "")
	if code != http.StatusCreated || body["uuid"] == first {
		t.Fatalf("after expiry POST = %d %v", code, body)
	}
	if body["is_new_user"] != false || body["is_new_device"] != false {
		t.Fatalf("known pair must not be new: %v", body)
	}
	if got := s.status(t, first); got != entity.SessionStatusExpired {
		t.Fatalf("previous session status = %s, want expired", got)
	}
}

func TestObtainSessionHTTPMobile(t *testing.T) {
	s := newServer(t)
	vendor := uuid.NewString()

	code, body := s.do(t, http.MethodPost, "/session/",
		`{"user":{"email":"m@x.com"},"device":{"type":"mobi","vendor_uuid":"`+vendor+`"}}`, "")
	if code != http.StatusCreated {
		t.Fatalf("POST = %d %v", code, body)
	}
	device, _ := body["device"].(map[string]any)
	if device["type"] != "mobi" || device["vendor_uuid"] != vendor {
		t.Fatalf("device = %v", device)
	}

	s.clock.Advance(72 * time.Hour)
	code, again := s.do(t, http.MethodPost, "/session/",
		`{"user":{"email":"m@x.com"},"device":{"type":"mobi","vendor_uuid":"`+vendor+`"}}`, "")
	if code != http.StatusOK || again["uuid"] != body["uuid"] {
		t.Fatalf("mobile reuse = %d %v", code, again)
	}
}

func TestObtainSessionHTTPRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "not json", body: `{"user":`, wantMsg: "Invalid JSON"},
		{name: "trailing data", body: otherDevice + `{}`, wantMsg: "Invalid JSON"},
		{name: "empty body", body: ``, wantMsg: "Invalid JSON"},
		{name: "missing email", body: `{"user":{},"device":{"type":"othr"}}`, wantMsg: "Invalid data"},
		{name: "unknown type", body: `{"user":{"email":"a@x.com"},"device":{"type":"tabl"}}`, wantMsg: "Invalid data"},
		{name: "mobile without vendor", body: `{"user":{"email":"a@x.com"},"device":{"type":"mobi"}}`, wantMsg: "Invalid data"},
		{name: "mobile bad vendor", body: `{"user":{"email":"a@x.com"},"device":{"type":"mobi","vendor_uuid":"nope"}}`, wantMsg: "Invalid data"},
		{name: "numeric email", body: `{"user":{"email":123},"device":{"type":"othr"}}`, wantMsg: "Invalid data"},
		{name: "numeric type", body: `{"user":{"email":"a@x.com"},"device":{"type":1}}`, wantMsg: "Invalid data"},
		{name: "numeric vendor", body: `{"user":{"email":"a@x.com"},"device":{"type":"mobi","vendor_uuid":42}}`, wantMsg: "Invalid data"},
		{name: "user not an object", body: `{"user":"a@x.com","device":{"type":"othr"}}`, wantMsg: "Invalid data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			code, body := s.do(t, http.MethodPost, "/session/", tt.body, "")
			assertError(t, code, body, http.StatusBadRequest, tt.wantMsg)
		})
	}
}

func TestConfirmSessionHTTP(t *testing.T) {
	t.Run("wrong code then right code", func(t *testing.T) {
		s := newServer(t)
		_, created := s.do(t, http.MethodPost, "/session/", otherDevice, "")
		id, token := created["uuid"].(string), created["token"].(string)
		otpCode := s.code(t, id)

		wrong := "000000"
		if otpCode == wrong {
			wrong = "111111"
		}
		code, body := s.do(t, http.MethodPatch, "/session/"+id+"/", `{"otp_code":"`+wrong+`"}`, token)
		assertError(t, code, body, http.StatusBadRequest, "Invalid OTP code")
		if got := s.status(t, id); got != entity.SessionStatusPending {
			t.Fatalf("status after wrong code = %s", got)
		}

		code, body = s.do(t, http.MethodPatch, "/session/"+id+"/", `{"otp_code":"`+otpCode+`"}`, token)
		if code != http.StatusOK || body["status"] != "confirmed" || body["uuid"] != id {
			t.Fatalf("confirm = %d %v", code, body)
		}

		code, body = s.do(t, http.MethodGet, "/session/"+id+"/", "", token)
		if code != http.StatusOK || body["status"] != "confirmed" {
			t.Fatalf("detail = %d %v", code, body)
		}
	})

	t.Run("non string code", func(t *testing.T) {
		s := newServer(t)
		_, created := s.do(t, http.MethodPost, "/session/", otherDevice, "")
		id, token := created["uuid"].(string), created["token"].(string)

		for _, raw := range []string{`123456`, `null`, `{"x":1}`, `["1"]`, `true`} {
			code, body := s.do(t, http.MethodPatch, "/session/"+id+"/", `{"otp_code":`+raw+`}`, token)
			assertError(t, code, body, http.StatusBadRequest, "Invalid OTP code")
		}
		if got := s.status(t, id); got != entity.SessionStatusPending {
			t.Fatalf("status after non string codes = %s", got)
		}

		code, body := s.do(t, http.MethodPatch, "/session/"+id+"/", `{"otp_code":"`+s.code(t, id)+`"}`, token)
		if code != http.StatusOK || body["status"] != "confirmed" {
			t.Fatalf("confirm = %d %v", code, body)
		}
	})

	t.Run("put is accepted", func(t *testing.T) {
		s := newServer(t)
		_, created := s.do(t, http.MethodPost, "/session/", otherDevice, "")
		id, token := created["uuid"].(string), created["token"].(string)

		code, body := s.do(t, http.MethodPut, "/session/"+id+"/", `{"otp_code":"`+s.code(t, id)+`"}`, token)
		if code != http.StatusOK || body["status"] != "confirmed" {
			t.Fatalf("PUT confirm = %d %v", code, body)
		}
	})

	t.Run("window elapsed", func(t *testing.T) {
		s := newServer(t)
		_, created := s.do(t, http.MethodPost, "/session/", otherDevice, "")
		id, token := created["uuid"].(string), created["token"].(string)

		s.clock.Advance(5*time.Minute + time.Second)
		code, body := s.do(t, http.MethodPatch, "/session/"+id+"/", `{"otp_code":"`+s.code(t, id)+`"}`, token)
		assertError(t, code, body, http.StatusUnauthorized, "Session expired")
		if got := s.status(t, id); got != entity.SessionStatusExpired {
			t.Fatalf("status = %s, want expired", got)
		}
	})

	t.Run("gate and lookup failures", func(t *testing.T) {
		s := newServer(t)
		_, a := s.do(t, http.MethodPost, "/session/", otherDevice, "")
		_, b := s.do(t, http.MethodPost, "/session/", `{"user":{"email":"b@x.com"},"device":{"type":"othr"}}`, "")
		id, tokenB := a["uuid"].(string), b["token"].(string)
		otpBody := `{"otp_code":"` + s.code(t, id) + `"}`

		code, body := s.do(t, http.MethodPatch, "/session/"+id+"/", otpBody, "")
		assertError(t, code, body, http.StatusUnauthorized, "Unauthorized")

		code, body = s.do(t, http.MethodPatch, "/session/"+id+"/", otpBody, "not-a-token")
		assertError(t, code, body, http.StatusUnauthorized, "Unauthorized")

		code, body = s.do(t, http.MethodPatch, "/session/"+id+"/", otpBody, tokenB)
		assertError(t, code, body, http.StatusNotFound, "Session not found")

		code, body = s.do(t, http.MethodPatch, "/session/usr-"+uuid.NewString()+"/", otpBody, tokenB)
		assertError(t, code, body, http.StatusNotFound, "Session not found")

		code, body = s.do(t, http.MethodPatch, "/session/ses-"+uuid.NewString()+"/", otpBody, tokenB)
		assertError(t, code, body, http.StatusNotFound, "Session not found")

		code, body = s.do(t, http.MethodPatch, "/session/"+b["uuid"].(string)+"/", `{"otp_code":`, tokenB)
		assertError(t, code, body, http.StatusBadRequest, "Invalid JSON")

		if got := s.status(t, id); got != entity.SessionStatusPending {
			t.Fatalf("target status = %s, want pending", got)
		}
	})
}

func TestSessionDetailHTTP(t *testing.T) {
	s := newServer(t)
	_, a := s.do(t, http.MethodPost, "/session/", otherDevice, "")
	_, b := s.do(t, http.MethodPost, "/session/", `{"user":{"email":"b@x.com"},"device":{"type":"othr"}}`, "")

	code, body := s.do(t, http.MethodGet, "/session/"+a["uuid"].(string)+"/", "", a["token"].(string))
	if code != http.StatusOK || body["uuid"] != a["uuid"] || body["status"] != "pending" {
		t.Fatalf("detail = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/session/"+a["uuid"].(string)+"/", "", b["token"].(string))
	assertError(t, code, body, http.StatusNotFound, "Session not found")

	code, body = s.do(t, http.MethodGet, "/session/"+a["uuid"].(string)+"/", "", "")
	assertError(t, code, body, http.StatusUnauthorized, "Unauthorized")
}

func TestSessionRoutesHTTP(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodDelete, "/session/", "", "")
	assertError(t, code, body, http.StatusMethodNotAllowed, "Method not allowed")

	code, body = s.do(t, http.MethodGet, "/nope/", "", "")
	assertError(t, code, body, http.StatusNotFound, "Endpoint not found")
}
