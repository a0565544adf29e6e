// Package memdb keeps users, devices and sessions in process memory. It
// honours the same not-found and conflict contract as the PostgreSQL store.
package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

type deviceKey struct {
	owner  uuid.UUID
	kind   entity.DeviceKind
	vendor uuid.UUID
}

type sessionRow struct {
	entity.NewSession
	status    entity.SessionStatus
	updatedAt time.Time
}

type DB struct {
	mu sync.RWMutex

	users        map[uuid.UUID]entity.User
	usersByEmail map[string]uuid.UUID

	devices     map[uuid.UUID]entity.Device
	devicesByNK map[deviceKey]uuid.UUID

	sessions        map[uuid.UUID]*sessionRow
	sessionsByToken map[string]uuid.UUID
	sessionsByPair  map[[2]uuid.UUID][]uuid.UUID
}

func New() *DB {
	return &DB{
		users:           map[uuid.UUID]entity.User{},
		usersByEmail:    map[string]uuid.UUID{},
		devices:         map[uuid.UUID]entity.Device{},
		devicesByNK:     map[deviceKey]uuid.UUID{},
		sessions:        map[uuid.UUID]*sessionRow{},
		sessionsByToken: map[string]uuid.UUID{},
		sessionsByPair:  map[[2]uuid.UUID][]uuid.UUID{},
	}
}

func naturalKey(owner uuid.UUID, kind entity.DeviceKind, vendorID *uuid.UUID) deviceKey {
	k := deviceKey{owner: owner, kind: kind}
	if vendorID != nil {
		k.vendor = *vendorID
	}
	return k
}

func clonePtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneDevice(d entity.Device) entity.Device {
	d.OwnerID = clonePtr(d.OwnerID)
	d.VendorID = clonePtr(d.VendorID)
	return d
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *DB) CreateUser(ctx context.Context, in entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.ID]; ok {
		return goerror.ErrConflict
	}
	if _, ok := s.usersByEmail[in.Email]; ok {
		return goerror.ErrConflict
	}
	s.users[in.ID] = in
	s.usersByEmail[in.Email] = in.ID
	return nil
}

func (s *DB) GetDevice(ctx context.Context, ownerID uuid.UUID, kind entity.DeviceKind, vendorID *uuid.UUID) (*entity.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.devicesByNK[naturalKey(ownerID, kind, vendorID)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	d := cloneDevice(s.devices[id])
	return &d, nil
}

func (s *DB) CreateDevice(ctx context.Context, in entity.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if in.OwnerID == nil {
		return goerror.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nk := naturalKey(*in.OwnerID, in.Kind, in.VendorID)
	if _, ok := s.devices[in.ID]; ok {
		return goerror.ErrConflict
	}
	if _, ok := s.devicesByNK[nk]; ok {
		return goerror.ErrConflict
	}
	s.devices[in.ID] = cloneDevice(in)
	s.devicesByNK[nk] = in.ID
	return nil
}

func (s *DB) CreateSession(ctx context.Context, in entity.NewSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.UserID]; !ok {
		return goerror.ErrNotFound
	}
	if _, ok := s.devices[in.DeviceID]; !ok {
		return goerror.ErrNotFound
	}
	if _, ok := s.sessions[in.ID]; ok {
		return goerror.ErrConflict
	}
	if _, ok := s.sessionsByToken[in.Token]; ok {
		return goerror.ErrConflict
	}

	s.sessions[in.ID] = &sessionRow{NewSession: in, status: entity.SessionStatusPending, updatedAt: in.CreatedAt}
	s.sessionsByToken[in.Token] = in.ID
	pair := [2]uuid.UUID{in.UserID, in.DeviceID}
	s.sessionsByPair[pair] = append(s.sessionsByPair[pair], in.ID)
	return nil
}

// session assembles a row with its user and device. Callers hold mu.
func (s *DB) session(row *sessionRow) *entity.Session {
	return &entity.Session{
		ID:          row.ID,
		Seq:         row.Seq,
		Token:       row.Token,
		OTPCode:     row.OTPCode,
		Status:      row.status,
		IsNewUser:   row.IsNewUser,
		IsNewDevice: row.IsNewDevice,
		User:        s.users[row.UserID],
		Device:      cloneDevice(s.devices[row.DeviceID]),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.updatedAt,
	}
}

func (s *DB) GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.sessions[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return s.session(row), nil
}

func (s *DB) GetSessionByToken(ctx context.Context, token string) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessionsByToken[token]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return s.session(s.sessions[id]), nil
}

// GetLatestSession orders by created_at then seq, both descending.
func (s *DB) GetLatestSession(ctx context.Context, userID, deviceID uuid.UUID) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sessionsByPair[[2]uuid.UUID{userID, deviceID}]
	if len(ids) == 0 {
		return nil, goerror.ErrNotFound
	}

	rows := make([]*sessionRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, s.sessions[id])
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].Seq > rows[j].Seq
	})

	return s.session(rows[0]), nil
}

// UpdateSessionStatus writes to only when the stored status is from.
func (s *DB) UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to entity.SessionStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[id]
	if !ok {
		return goerror.ErrNotFound
	}
	if row.status != from {
		return goerror.ErrConflict
	}
	row.status = to
	row.updatedAt = at
	return nil
}
