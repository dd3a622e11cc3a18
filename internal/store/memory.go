package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/store/schema"
)

// memoryState holds a snapshot of all tables. Records are stored by value so
// a snapshot copy cannot be mutated through leaked pointers.
type memoryState struct {
	investments map[uint64]schema.Investment
	disputes    map[uint64]schema.Dispute
	rateStates  map[string]schema.RateState
	barriers    map[uint64]schema.CoolingBarrier
	balances    map[string]schema.AccountBalance
	audits      []schema.AuditEvent
	kv          map[string]string
}

func newMemoryState() *memoryState {
	return &memoryState{
		investments: make(map[uint64]schema.Investment),
		disputes:    make(map[uint64]schema.Dispute),
		rateStates:  make(map[string]schema.RateState),
		barriers:    make(map[uint64]schema.CoolingBarrier),
		balances:    make(map[string]schema.AccountBalance),
		kv:          make(map[string]string),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.investments {
		c.investments[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.rateStates {
		c.rateStates[k] = v
	}
	for k, v := range s.barriers {
		c.barriers[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	c.audits = append(c.audits, s.audits...)
	for k, v := range s.kv {
		c.kv[k] = v
	}
	return c
}

// MemoryStore is an in-memory Store implementation used by unit tests. A Tx
// runs against a cloned snapshot that replaces the live state only on
// success, giving the same all-or-nothing visibility as a database
// transaction. Id sequences live outside the snapshot so a rolled-back
// create still consumes its id, matching postgres sequence behavior.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState

	nextInvestmentID uint64
	nextDisputeID    uint64
	nextAuditID      uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// SeedBalance sets an account balance directly, bypassing transfer rules.
// Test helper standing in for the external deposit mechanism.
func (m *MemoryStore) SeedBalance(account domain.AccountID, balance uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.balances[string(account)] = schema.AccountBalance{
		Account: string(account),
		Balance: balance,
	}
}

// AuditEvents returns a copy of the append-only audit log. Test helper.
func (m *MemoryStore) AuditEvents() []schema.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.AuditEvent, len(m.state.audits))
	copy(out, m.state.audits)
	return out
}

// Tx runs fn against a snapshot that becomes visible only if fn succeeds
func (m *MemoryStore) Tx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	tx := &memoryTx{root: m, state: snapshot}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = snapshot
	return nil
}

func (m *MemoryStore) CreateInvestment(ctx context.Context, inv *schema.Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return createInvestment(m, m.state, inv)
}

func (m *MemoryStore) GetInvestment(ctx context.Context, id uint64) (*schema.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getInvestment(m.state, id), nil
}

func (m *MemoryStore) GetInvestmentForUpdate(ctx context.Context, id uint64) (*schema.Investment, error) {
	return m.GetInvestment(ctx, id)
}

func (m *MemoryStore) SaveInvestment(ctx context.Context, inv *schema.Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.investments[inv.ID] = *inv
	return nil
}

func (m *MemoryStore) ListInvestmentsByFunder(ctx context.Context, funder domain.AccountID) ([]*schema.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return listInvestmentsByFunder(m.state, funder), nil
}

func (m *MemoryStore) CountOutstandingInvestments(ctx context.Context, funder domain.AccountID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return countOutstanding(m.state, funder), nil
}

func (m *MemoryStore) CreateDispute(ctx context.Context, d *schema.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return createDispute(m, m.state, d)
}

func (m *MemoryStore) GetOpenDispute(ctx context.Context, investmentID uint64) (*schema.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getOpenDispute(m.state, investmentID), nil
}

func (m *MemoryStore) SaveDispute(ctx context.Context, d *schema.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.disputes[d.ID] = *d
	return nil
}

func (m *MemoryStore) GetRateStateForUpdate(ctx context.Context, account domain.AccountID) (*schema.RateState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rs, ok := m.state.rateStates[string(account)]; ok {
		return &rs, nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveRateState(ctx context.Context, rs *schema.RateState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.rateStates[rs.Account] = *rs
	return nil
}

func (m *MemoryStore) CreateCoolingBarrier(ctx context.Context, cb *schema.CoolingBarrier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.barriers[cb.InvestmentID] = *cb
	return nil
}

func (m *MemoryStore) GetCoolingBarrier(ctx context.Context, investmentID uint64) (*schema.CoolingBarrier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok := m.state.barriers[investmentID]; ok {
		return &cb, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetBalance(ctx context.Context, account domain.AccountID) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.balances[string(account)].Balance, nil
}

func (m *MemoryStore) GetBalanceForUpdate(ctx context.Context, account domain.AccountID) (*schema.AccountBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.state.balances[string(account)]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveBalance(ctx context.Context, b *schema.AccountBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.balances[b.Account] = *b
	return nil
}

func (m *MemoryStore) AppendAuditEvent(ctx context.Context, ev *schema.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appendAudit(m, m.state, ev)
	return nil
}

func (m *MemoryStore) GetValue(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.kv[key], nil
}

func (m *MemoryStore) SetValue(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.kv[key] = value
	return nil
}

func (m *MemoryStore) DeleteValue(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.kv, key)
	return nil
}

// memoryTx is the transactional view over a snapshot. The root store's mutex
// is held for the whole transaction, so no additional locking is needed.
type memoryTx struct {
	root  *MemoryStore
	state *memoryState
}

// Tx nested within a transaction reuses the same snapshot
func (t *memoryTx) Tx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) CreateInvestment(ctx context.Context, inv *schema.Investment) error {
	return createInvestment(t.root, t.state, inv)
}

func (t *memoryTx) GetInvestment(ctx context.Context, id uint64) (*schema.Investment, error) {
	return getInvestment(t.state, id), nil
}

func (t *memoryTx) GetInvestmentForUpdate(ctx context.Context, id uint64) (*schema.Investment, error) {
	return getInvestment(t.state, id), nil
}

func (t *memoryTx) SaveInvestment(ctx context.Context, inv *schema.Investment) error {
	t.state.investments[inv.ID] = *inv
	return nil
}

func (t *memoryTx) ListInvestmentsByFunder(ctx context.Context, funder domain.AccountID) ([]*schema.Investment, error) {
	return listInvestmentsByFunder(t.state, funder), nil
}

func (t *memoryTx) CountOutstandingInvestments(ctx context.Context, funder domain.AccountID) (int64, error) {
	return countOutstanding(t.state, funder), nil
}

func (t *memoryTx) CreateDispute(ctx context.Context, d *schema.Dispute) error {
	return createDispute(t.root, t.state, d)
}

func (t *memoryTx) GetOpenDispute(ctx context.Context, investmentID uint64) (*schema.Dispute, error) {
	return getOpenDispute(t.state, investmentID), nil
}

func (t *memoryTx) SaveDispute(ctx context.Context, d *schema.Dispute) error {
	t.state.disputes[d.ID] = *d
	return nil
}

func (t *memoryTx) GetRateStateForUpdate(ctx context.Context, account domain.AccountID) (*schema.RateState, error) {
	if rs, ok := t.state.rateStates[string(account)]; ok {
		return &rs, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveRateState(ctx context.Context, rs *schema.RateState) error {
	t.state.rateStates[rs.Account] = *rs
	return nil
}

func (t *memoryTx) CreateCoolingBarrier(ctx context.Context, cb *schema.CoolingBarrier) error {
	t.state.barriers[cb.InvestmentID] = *cb
	return nil
}

func (t *memoryTx) GetCoolingBarrier(ctx context.Context, investmentID uint64) (*schema.CoolingBarrier, error) {
	if cb, ok := t.state.barriers[investmentID]; ok {
		return &cb, nil
	}
	return nil, nil
}

func (t *memoryTx) GetBalance(ctx context.Context, account domain.AccountID) (uint64, error) {
	return t.state.balances[string(account)].Balance, nil
}

func (t *memoryTx) GetBalanceForUpdate(ctx context.Context, account domain.AccountID) (*schema.AccountBalance, error) {
	if b, ok := t.state.balances[string(account)]; ok {
		return &b, nil
	}
	return nil, nil
}

func (t *memoryTx) SaveBalance(ctx context.Context, b *schema.AccountBalance) error {
	t.state.balances[b.Account] = *b
	return nil
}

func (t *memoryTx) AppendAuditEvent(ctx context.Context, ev *schema.AuditEvent) error {
	appendAudit(t.root, t.state, ev)
	return nil
}

func (t *memoryTx) GetValue(ctx context.Context, key string) (string, error) {
	return t.state.kv[key], nil
}

func (t *memoryTx) SetValue(ctx context.Context, key string, value string) error {
	t.state.kv[key] = value
	return nil
}

func (t *memoryTx) DeleteValue(ctx context.Context, key string) error {
	delete(t.state.kv, key)
	return nil
}

// Shared helpers operating on a state snapshot. Id counters are taken from
// the root so ids are never reissued, even across rolled-back transactions.

func createInvestment(root *MemoryStore, s *memoryState, inv *schema.Investment) error {
	root.nextInvestmentID++
	inv.ID = root.nextInvestmentID
	s.investments[inv.ID] = *inv
	return nil
}

func getInvestment(s *memoryState, id uint64) *schema.Investment {
	if inv, ok := s.investments[id]; ok {
		return &inv
	}
	return nil
}

func listInvestmentsByFunder(s *memoryState, funder domain.AccountID) []*schema.Investment {
	var out []*schema.Investment
	for _, inv := range s.investments {
		if inv.Funder == string(funder) {
			record := inv
			out = append(out, &record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func countOutstanding(s *memoryState, funder domain.AccountID) int64 {
	var count int64
	for _, inv := range s.investments {
		if inv.Funder == string(funder) && !inv.Status.Terminal() {
			count++
		}
	}
	return count
}

func createDispute(root *MemoryStore, s *memoryState, d *schema.Dispute) error {
	root.nextDisputeID++
	d.ID = root.nextDisputeID
	s.disputes[d.ID] = *d
	return nil
}

func getOpenDispute(s *memoryState, investmentID uint64) *schema.Dispute {
	for _, d := range s.disputes {
		if d.InvestmentID == investmentID && d.ResolvedAt == nil {
			record := d
			return &record
		}
	}
	return nil
}

func appendAudit(root *MemoryStore, s *memoryState, ev *schema.AuditEvent) {
	root.nextAuditID++
	ev.ID = root.nextAuditID
	s.audits = append(s.audits, *ev)
}
