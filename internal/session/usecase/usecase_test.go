package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpsession/internal/pkg/clock"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpsession/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsession/internal/pkg/lock"
	"github.com/shandysiswandi/otpsession/internal/pkg/uid"
	"github.com/shandysiswandi/otpsession/internal/pkg/validator"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
	"github.com/shandysiswandi/otpsession/internal/session/outbound/memdb"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stubSecret hands out predictable tokens and a fixed code. Tokens listed in
// collide are returned first, once each.
type stubSecret struct {
	mu      sync.Mutex
	n       int
	code    string
	collide []string
}

func (s *stubSecret) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.collide) > 0 {
		tok := s.collide[0]
		s.collide = s.collide[1:]
		return tok, nil
	}
	s.n++
	return fmt.Sprintf("token-%03d", s.n), nil
}

func (s *stubSecret) Code() (string, error) {
	return s.code, nil
}

type published struct {
	name  string
	event SessionEvent
}

type recordingMessaging struct {
	mu   sync.Mutex
	sent []published
}

func (r *recordingMessaging) record(name string, ev SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{name: name, event: ev})
	return nil
}

func (r *recordingMessaging) PublishSessionCreated(_ context.Context, ev SessionEvent) error {
	return r.record("created", ev)
}

func (r *recordingMessaging) PublishSessionConfirmed(_ context.Context, ev SessionEvent) error {
	return r.record("confirmed", ev)
}

func (r *recordingMessaging) PublishSessionExpired(_ context.Context, ev SessionEvent) error {
	return r.record("expired", ev)
}

type fixture struct {
	uc     *Usecase
	db     *memdb.DB
	clock  *clock.Frozen
	secret *stubSecret
	mq     *recordingMessaging
	mgr    *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	seq, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	f := &fixture{
		db:     memdb.New(),
		clock:  clock.NewFrozen(t0),
		secret: &stubSecret{code: "042917"},
		mq:     &recordingMessaging{},
		mgr:    goroutine.NewManager(8),
	}
	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Locker:        lock.NewLocal(lock.Options{}),
		Validator:     v,
		Clock:         f.clock,
		UUID:          uid.NewUUID(),
		Seq:           seq,
		Secret:        f.secret,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.mgr,
		Policy:        entity.DefaultPolicy(),
		LogOTP:        true,
	})
	return f
}

// events waits for queued publishes and returns their names in order of arrival.
func (f *fixture) events(t *testing.T) []string {
	t.Helper()
	if err := f.mgr.Wait(); err != nil {
		t.Fatalf("publish errors: %v", err)
	}

	f.mq.mu.Lock()
	defer f.mq.mu.Unlock()
	names := make([]string, 0, len(f.mq.sent))
	for _, p := range f.mq.sent {
		names = append(names, p.name)
	}
	return names
}

func (f *fixture) obtain(t *testing.T, in ObtainSessionInput) *ObtainSessionOutput {
	t.Helper()
	out, err := f.uc.ObtainSession(context.Background(), in)
	if err != nil {
		t.Fatalf("ObtainSession(%+v): %v", in, err)
	}
	return out
}

func (f *fixture) stored(t *testing.T, ss entity.Session) *entity.Session {
	t.Helper()
	got, err := f.db.GetSessionByID(context.Background(), ss.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	return got
}

func assertBusiness(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()
	gerr, ok := goerror.As(err)
	if !ok {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if gerr.Code() != code || gerr.Msg() != msg {
		t.Fatalf("error = (%s, %q), want (%s, %q)", gerr.Code(), gerr.Msg(), code, msg)
	}
}

func unordered(names []string) map[string]int {
	out := map[string]int{}
	for _, n := range names {
		out[n]++
	}
	return out
}
