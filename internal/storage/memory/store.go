package memory

import (
	"context" // request-scoped cancellation for the lock callback
	"sort"
	"strings"
	"sync" // mutexes for the store and the per-user locks

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/fin-ledger/internal/models"                // domain models: User, Statement
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Statements are kept in insertion order, which is also creation order.
type MemoryLedgerStore struct {
	mu         sync.Mutex                // protects users and statements
	users      map[uuid.UUID]models.User // users by id
	statements []models.Statement        // append-only statement log
	locksMu    sync.Mutex                // protects the locks map itself
	locks      map[uuid.UUID]*sync.Mutex // one mutex per user history
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		users:      make(map[uuid.UUID]models.User),
		statements: make([]models.Statement, 0),
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *MemoryLedgerStore) CreateUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.addUserLocked(user)
}

func (m *MemoryLedgerStore) addUserLocked(user models.User) error {
	if _, exists := m.users[user.ID]; exists {
		return interfaces.ErrConflict
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return interfaces.ErrConflict
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryLedgerStore) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, interfaces.ErrNotFound
	}
	return user, nil
}

func (m *MemoryLedgerStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, interfaces.ErrNotFound
}

// InsertStatement appends a statement to the log.
func (m *MemoryLedgerStore) InsertStatement(ctx context.Context, statement models.Statement) error {
	m.mu.Lock()         // lock the mutex to prevent concurrent writes
	defer m.mu.Unlock() // unlock automatically when function exits

	return m.appendStatementLocked(statement)
}

func (m *MemoryLedgerStore) appendStatementLocked(statement models.Statement) error {
	for _, s := range m.statements {
		if s.ID == statement.ID {
			return interfaces.ErrConflict
		}
	}
	m.statements = append(m.statements, statement)
	return nil
}

func (m *MemoryLedgerStore) FindStatementByID(ctx context.Context, id uuid.UUID) (models.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.statements {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Statement{}, interfaces.ErrNotFound
}

func (m *MemoryLedgerStore) FindStatementsByUser(ctx context.Context, userID uuid.UUID) ([]models.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.Statement, 0)
	for _, s := range m.statements {
		if s.Involves(userID) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MemoryLedgerStore) getUserLock(userID uuid.UUID) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	if _, exists := m.locks[userID]; !exists {
		m.locks[userID] = &sync.Mutex{}
	}
	return m.locks[userID]
}

// WithinUserLock serializes fn against every other WithinUserLock call that
// names one of the same users. Writes are staged and applied only when fn
// succeeds.
func (m *MemoryLedgerStore) WithinUserLock(ctx context.Context, userIDs []uuid.UUID, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	ids := sortedUnique(userIDs)

	// Lock in a fixed order to avoid deadlocks
	for _, id := range ids {
		mu := m.getUserLock(id)
		mu.Lock()
		defer mu.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (m *MemoryLedgerStore) Close() error {
	return nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// memoryTx reads through to the store and buffers writes until commit.
type memoryTx struct {
	store      *MemoryLedgerStore
	users      []models.User
	statements []models.Statement
}

func (t *memoryTx) CreateUser(ctx context.Context, user models.User) error {
	if _, err := t.FindUserByEmail(ctx, user.Email); err == nil {
		return interfaces.ErrConflict
	}
	t.users = append(t.users, user)
	return nil
}

func (t *memoryTx) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	for _, u := range t.users {
		if u.ID == id {
			return u, nil
		}
	}
	return t.store.FindUserByID(ctx, id)
}

func (t *memoryTx) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range t.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return t.store.FindUserByEmail(ctx, email)
}

func (t *memoryTx) InsertStatement(ctx context.Context, statement models.Statement) error {
	t.statements = append(t.statements, statement)
	return nil
}

func (t *memoryTx) FindStatementByID(ctx context.Context, id uuid.UUID) (models.Statement, error) {
	for _, s := range t.statements {
		if s.ID == id {
			return s, nil
		}
	}
	return t.store.FindStatementByID(ctx, id)
}

func (t *memoryTx) FindStatementsByUser(ctx context.Context, userID uuid.UUID) ([]models.Statement, error) {
	result, err := t.store.FindStatementsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range t.statements {
		if s.Involves(userID) {
			result = append(result, s)
		}
	}
	return result, nil
}

// commit applies the staged writes all at once or not at all.
func (t *memoryTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	usersBefore := make(map[uuid.UUID]models.User, len(t.store.users))
	for id, u := range t.store.users {
		usersBefore[id] = u
	}
	statementsBefore := len(t.store.statements)

	rollback := func() {
		t.store.users = usersBefore
		t.store.statements = t.store.statements[:statementsBefore]
	}

	for _, u := range t.users {
		if err := t.store.addUserLocked(u); err != nil {
			rollback()
			return err
		}
	}
	for _, s := range t.statements {
		if err := t.store.appendStatementLocked(s); err != nil {
			rollback()
			return err
		}
	}
	return nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
