package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// recordingEmitter collects emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingEmitter) Emit(ctx context.Context, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func newTestRegistry() (*SessionRegistry, *mockDAppRepo, *recordingEmitter, *fakeClock) {
	repo := newMockDAppRepo()
	emitter := &recordingEmitter{}
	clock := newFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewSessionRegistry(repo, clock, emitter), repo, emitter, clock
}

func bindReq(sessionID string, v *domain.Vault) *BindRequest {
	return &BindRequest{
		Key:   domain.SessionKey{SessionID: sessionID, Origin: dappOrigin},
		Vault: v.Ref(),
	}
}

func TestSessionRegistry_FindOrCreate_New(t *testing.T) {
	reg, repo, emitter, _ := newTestRegistry()
	ctx := context.Background()

	req := bindReq("s1", vaultAA)
	req.Name = "Swap"
	req.UserID = "user-1"

	res, err := reg.FindOrCreate(ctx, req)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if !res.Created || res.Switched {
		t.Errorf("Created = %v, Switched = %v, want true, false", res.Created, res.Switched)
	}
	if res.DApp.Name != "Swap" || res.DApp.UserID != "user-1" {
		t.Errorf("DApp = %+v", res.DApp)
	}
	if repo.count() != 1 {
		t.Errorf("stored sessions = %d, want 1", repo.count())
	}

	events := emitter.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	bound, ok := events[0].(domain.SessionBound)
	if !ok || !bound.Created || bound.Room() != "s1" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestSessionRegistry_FindOrCreate_SetUnion(t *testing.T) {
	reg, _, _, clock := newTestRegistry()
	ctx := context.Background()

	sequence := []*domain.Vault{vaultAA, vaultBB, vaultAA, vaultCC, vaultBB, vaultBB}
	var last *BindResult
	for _, v := range sequence {
		clock.Advance(time.Second)
		res, err := reg.FindOrCreate(ctx, bindReq("s1", v))
		if err != nil {
			t.Fatalf("FindOrCreate(%s) error = %v", v.ID, err)
		}
		if err := res.DApp.CheckInvariant(); err != nil {
			t.Fatalf("invariant violated after %s: %v", v.ID, err)
		}
		last = res
	}

	if len(last.DApp.Vaults) != 3 {
		t.Errorf("len(Vaults) = %d, want 3", len(last.DApp.Vaults))
	}
	for _, v := range []*domain.Vault{vaultAA, vaultBB, vaultCC} {
		if !last.DApp.HasVault(v.ID) {
			t.Errorf("vault %s missing from set", v.ID)
		}
	}
	if last.DApp.CurrentVault.ID != vaultBB.ID {
		t.Errorf("CurrentVault = %s, want %s", last.DApp.CurrentVault.ID, vaultBB.ID)
	}

	stored, err := reg.FindBySessionKey(ctx, domain.SessionKey{SessionID: "s1", Origin: dappOrigin})
	if err != nil {
		t.Fatalf("FindBySessionKey() error = %v", err)
	}
	if stored.CurrentVault != last.DApp.CurrentVault || len(stored.Vaults) != 3 {
		t.Errorf("stored session differs from returned one: %+v", stored)
	}
}

func TestSessionRegistry_FindOrCreate_Idempotent(t *testing.T) {
	reg, _, emitter, _ := newTestRegistry()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := reg.FindOrCreate(ctx, bindReq("s1", vaultAA)); err != nil {
			t.Fatalf("FindOrCreate() error = %v", err)
		}
	}

	d, _ := reg.FindBySessionKey(ctx, domain.SessionKey{SessionID: "s1", Origin: dappOrigin})
	if len(d.Vaults) != 1 {
		t.Errorf("len(Vaults) = %d, want 1", len(d.Vaults))
	}
	if d.Version != 3 {
		t.Errorf("Version = %d, want 3", d.Version)
	}
	// Only the creation is announced.
	if n := len(emitter.all()); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}
}

func TestSessionRegistry_FindOrCreate_OwnerSetOnce(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	if _, err := reg.FindOrCreate(ctx, bindReq("s1", vaultAA)); err != nil {
		t.Fatal(err)
	}

	req := bindReq("s1", vaultAA)
	req.UserID = "user-1"
	res, _ := reg.FindOrCreate(ctx, req)
	if res.DApp.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", res.DApp.UserID)
	}

	req.UserID = "user-2"
	res, _ = reg.FindOrCreate(ctx, req)
	if res.DApp.UserID != "user-1" {
		t.Errorf("UserID = %q, owner must not change", res.DApp.UserID)
	}
}

func TestSessionRegistry_FindOrCreate_Validation(t *testing.T) {
	reg, _, _, _ := newTestRegistry()

	tests := []struct {
		name string
		req  *BindRequest
	}{
		{"missing session id", &BindRequest{Key: domain.SessionKey{Origin: dappOrigin}, Vault: vaultAA.Ref()}},
		{"missing origin", &BindRequest{Key: domain.SessionKey{SessionID: "s1"}, Vault: vaultAA.Ref()}},
		{"missing vault", &BindRequest{Key: domain.SessionKey{SessionID: "s1", Origin: dappOrigin}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.FindOrCreate(context.Background(), tt.req)
			if !domain.IsValidation(err) {
				t.Errorf("FindOrCreate() error = %v, want validation error", err)
			}
		})
	}
}

func TestSessionRegistry_FindOrCreate_ConcurrentCreate(t *testing.T) {
	reg, repo, emitter, _ := newTestRegistry()

	// Both callers pass the lookup before either creates.
	var barrier sync.WaitGroup
	barrier.Add(2)
	repo.createHook = func() {
		barrier.Done()
		barrier.Wait()
	}

	var wg sync.WaitGroup
	results := make([]*BindResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = reg.FindOrCreate(context.Background(), bindReq("fresh", vaultCC))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d error = %v", i, err)
		}
	}
	if repo.count() != 1 {
		t.Errorf("stored sessions = %d, want 1", repo.count())
	}
	if results[0].Created == results[1].Created {
		t.Errorf("exactly one caller should create, got %v and %v", results[0].Created, results[1].Created)
	}
	if n := len(emitter.all()); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}
}

// conflictRepo fails every write with a conflict.
type conflictRepo struct {
	*mockDAppRepo
}

func (c conflictRepo) Create(ctx context.Context, dapp *domain.DApp) error {
	return domain.ErrDAppConflict
}

func TestSessionRegistry_FindOrCreate_PersistentConflict(t *testing.T) {
	reg := NewSessionRegistry(conflictRepo{newMockDAppRepo()}, nil, nil)

	_, err := reg.FindOrCreate(context.Background(), bindReq("s1", vaultAA))
	if !errors.Is(err, domain.ErrDAppConflict) {
		t.Errorf("FindOrCreate() error = %v, want ErrDAppConflict", err)
	}
}

func TestSessionRegistry_FindOrCreate_StorageError(t *testing.T) {
	reg, repo, _, _ := newTestRegistry()
	repo.getErr = errBoom

	_, err := reg.FindOrCreate(context.Background(), bindReq("s1", vaultAA))
	if !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("FindOrCreate() error = %v, want ErrStorageError", err)
	}
	if !errors.Is(err, errBoom) {
		t.Error("storage error should keep its cause")
	}
}

func TestSessionRegistry_FindBySessionKey(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()

	if _, err := reg.FindOrCreate(ctx, bindReq("s1", vaultAA)); err != nil {
		t.Fatal(err)
	}

	// Same session id, other origin.
	_, err := reg.FindBySessionKey(ctx, domain.SessionKey{SessionID: "s1", Origin: "https://other.example"})
	if !errors.Is(err, domain.ErrDAppNotFound) {
		t.Errorf("FindBySessionKey() error = %v, want ErrDAppNotFound", err)
	}

	d, err := reg.FindBySessionKey(ctx, domain.SessionKey{SessionID: "s1", Origin: dappOrigin})
	if err != nil || d.CurrentVault.ID != vaultAA.ID {
		t.Errorf("FindBySessionKey() = %+v, %v", d, err)
	}
}

func TestSessionRegistry_FindCurrentVault(t *testing.T) {
	reg, _, _, clock := newTestRegistry()
	ctx := context.Background()

	if _, err := reg.FindCurrentVault(ctx, "s1"); !errors.Is(err, domain.ErrDAppNotFound) {
		t.Errorf("FindCurrentVault() error = %v, want ErrDAppNotFound", err)
	}

	if _, err := reg.FindOrCreate(ctx, bindReq("s1", vaultAA)); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	other := &BindRequest{
		Key:   domain.SessionKey{SessionID: "s1", Origin: "https://other.example"},
		Vault: vaultBB.Ref(),
	}
	if _, err := reg.FindOrCreate(ctx, other); err != nil {
		t.Fatal(err)
	}

	ref, err := reg.FindCurrentVault(ctx, "s1")
	if err != nil {
		t.Fatalf("FindCurrentVault() error = %v", err)
	}
	if ref.ID != vaultBB.ID {
		t.Errorf("FindCurrentVault() = %s, want most recently updated %s", ref.ID, vaultBB.ID)
	}

	if _, err := reg.FindCurrentVault(ctx, ""); !domain.IsValidation(err) {
		t.Errorf("FindCurrentVault(\"\") error = %v, want validation error", err)
	}
}

func TestSessionRegistry_Delete(t *testing.T) {
	reg, repo, _, _ := newTestRegistry()
	ctx := context.Background()
	key := domain.SessionKey{SessionID: "s1", Origin: dappOrigin}

	if _, err := reg.FindOrCreate(ctx, bindReq("s1", vaultAA)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := reg.Delete(ctx, key); err != nil {
			t.Fatalf("Delete() call %d error = %v", i+1, err)
		}
	}
	if repo.count() != 0 {
		t.Errorf("stored sessions = %d, want 0", repo.count())
	}

	repo.deleteErr = errBoom
	if err := reg.Delete(ctx, key); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("Delete() error = %v, want ErrStorageError", err)
	}
}

func TestSessionRegistry_StateAndAccounts(t *testing.T) {
	reg, _, _, _ := newTestRegistry()
	ctx := context.Background()
	key := domain.SessionKey{SessionID: "s1", Origin: dappOrigin}

	connected, err := reg.State(ctx, key)
	if err != nil || connected {
		t.Errorf("State() = %v, %v, want false, nil", connected, err)
	}

	for _, v := range []*domain.Vault{vaultAA, vaultBB} {
		if _, err := reg.FindOrCreate(ctx, bindReq("s1", v)); err != nil {
			t.Fatal(err)
		}
	}

	connected, err = reg.State(ctx, key)
	if err != nil || !connected {
		t.Errorf("State() = %v, %v, want true, nil", connected, err)
	}

	addrs, err := reg.Accounts(ctx, key)
	if err != nil {
		t.Fatalf("Accounts() error = %v", err)
	}
	if fmt.Sprint(addrs) != "[0xAA 0xBB]" {
		t.Errorf("Accounts() = %v", addrs)
	}
}

func TestMustHoldInvariant_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unbound current vault")
		}
	}()
	mustHoldInvariant(&domain.DApp{ID: "x", Vaults: []domain.VaultRef{vaultAA.Ref()}, CurrentVault: vaultBB.Ref()})
}
