package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
)

// mockDAppRepo is a mock implementation of DAppRepository for testing.
// It enforces key uniqueness and optimistic locking like the real stores.
type mockDAppRepo struct {
	mu    sync.Mutex
	dapps map[string]*domain.DApp

	// createHook runs before Create takes the lock.
	createHook func()
	getErr     error
	deleteErr  error
}

func newMockDAppRepo() *mockDAppRepo {
	return &mockDAppRepo{dapps: make(map[string]*domain.DApp)}
}

func (m *mockDAppRepo) Get(ctx context.Context, key domain.SessionKey) (*domain.DApp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	d, ok := m.dapps[key.String()]
	if !ok {
		return nil, domain.ErrDAppNotFound
	}
	return d.Clone(), nil
}

func (m *mockDAppRepo) FindBySessionID(ctx context.Context, sessionID string) ([]*domain.DApp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.DApp
	for _, d := range m.dapps {
		if d.SessionID == sessionID {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (m *mockDAppRepo) Create(ctx context.Context, dapp *domain.DApp) error {
	if m.createHook != nil {
		m.createHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.dapps[dapp.Key().String()]; exists {
		return domain.ErrDAppConflict
	}
	m.dapps[dapp.Key().String()] = dapp.Clone()
	return nil
}

func (m *mockDAppRepo) Update(ctx context.Context, dapp *domain.DApp, expectedVersion uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.dapps[dapp.Key().String()]
	if !ok {
		return domain.ErrDAppNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrDAppVersionConflict
	}
	m.dapps[dapp.Key().String()] = dapp.Clone()
	return nil
}

func (m *mockDAppRepo) Delete(ctx context.Context, key domain.SessionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.dapps[key.String()]; !ok {
		return domain.ErrDAppNotFound
	}
	delete(m.dapps, key.String())
	return nil
}

func (m *mockDAppRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dapps)
}

// mockVaults is a mock implementation of VaultDirectory.
type mockVaults struct {
	byID map[string]*domain.Vault
	err  error
}

func newMockVaults(vaults ...*domain.Vault) *mockVaults {
	m := &mockVaults{byID: make(map[string]*domain.Vault)}
	for _, v := range vaults {
		m.byID[v.ID] = v
	}
	return m
}

func (m *mockVaults) FindByID(ctx context.Context, id string) (*domain.Vault, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrVaultNotFound
	}
	return v, nil
}

func (m *mockVaults) FindByAddress(ctx context.Context, address string) (*domain.Vault, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, v := range m.byID {
		if v.Address == address {
			return v, nil
		}
	}
	return nil, domain.ErrVaultNotFound
}

// mockUsers is a mock implementation of UserDirectory.
type mockUsers map[string]*domain.User

func (m mockUsers) FindByAddress(ctx context.Context, address string) (*domain.User, error) {
	u, ok := m[address]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// mockTxRepo is a mock implementation of TransactionRepository.
type mockTxRepo struct {
	txs []*domain.Transaction
	err error
}

func (m *mockTxRepo) List(ctx context.Context, filter *TransactionFilter) ([]*domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Transaction
	for _, tx := range m.txs {
		if filter.VaultAddress != "" && tx.VaultAddress != filter.VaultAddress {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, tx.Status) {
			continue
		}
		out = append(out, tx)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func containsStatus(list []domain.TransactionStatus, s domain.TransactionStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// mockCodeRepo is a mock implementation of RecoverCodeRepository.
type mockCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.RecoverCode
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{codes: make(map[string]*domain.RecoverCode)}
}

func (m *mockCodeRepo) Create(ctx context.Context, code *domain.RecoverCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code.Code]; ok {
		return domain.ErrRecoverCodeConflict
	}
	m.codes[code.Code] = code.Clone()
	return nil
}

func (m *mockCodeRepo) Get(ctx context.Context, code string) (*domain.RecoverCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrRecoverCodeNotFound
	}
	return rc.Clone(), nil
}

// mockPublisher records published messages.
type mockPublisher struct {
	mu       sync.Mutex
	messages []*domain.Message
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, room string, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) published() []*domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// mockMetrics counts observations.
type mockMetrics struct {
	mu         sync.Mutex
	events     map[string]int
	sinkErrors map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{events: make(map[string]int), sinkErrors: make(map[string]int)}
}

func (m *mockMetrics) ObserveEvent(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[name]++
}

func (m *mockMetrics) ObserveSinkError(sink string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinkErrors[sink]++
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errBoom = errors.New("boom")

// Fixtures shared by the service tests.
var (
	vaultAA = &domain.Vault{ID: "vault-aa", Address: "0xAA", Name: "Treasury", Provider: "https://rpc.example/aa"}
	vaultBB = &domain.Vault{ID: "vault-bb", Address: "0xBB", Name: "Ops", Provider: "https://rpc.example/bb"}
	vaultCC = &domain.Vault{ID: "vault-cc", Address: "0xCC", Name: "Payroll", Provider: "https://rpc.example/cc"}

	dappOrigin = "https://dapp.example"
)
