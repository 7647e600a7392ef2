package finance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
)

// In-memory repositories backing the service tests. SaveWithLock mimics
// the database's optimistic locking: it fails with CONCURRENCY_CONFLICT
// unless the caller holds the stored version.

type memDebtRepo struct {
	mu    sync.Mutex
	debts map[uuid.UUID]finance.Debt
}

func newMemDebtRepo() *memDebtRepo {
	return &memDebtRepo{debts: make(map[uuid.UUID]finance.Debt)}
}

func cloneDebt(d finance.Debt) finance.Debt {
	payments := make(finance.DebtPayments, len(d.Payments))
	copy(payments, d.Payments)
	d.Payments = payments
	return d
}

func (r *memDebtRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.debts[id]; ok {
		c := cloneDebt(d)
		return &c, nil
	}
	return nil, nil
}

func (r *memDebtRepo) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*finance.Debt, error) {
	d, err := r.FindByID(ctx, id)
	if err != nil || d == nil || d.CompanyID != companyID {
		return nil, err
	}
	return d, nil
}

func (r *memDebtRepo) FindByPaymentID(_ context.Context, companyID, paymentID uuid.UUID) (*finance.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.debts {
		if d.CompanyID != companyID {
			continue
		}
		for i := range d.Payments {
			if d.Payments[i].ID == paymentID {
				c := cloneDebt(d)
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (r *memDebtRepo) FindAllForCompany(_ context.Context, companyID uuid.UUID, _ finance.DebtFilter) ([]finance.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.Debt
	for _, d := range r.debts {
		if d.CompanyID == companyID {
			out = append(out, cloneDebt(d))
		}
	}
	return out, nil
}

func (r *memDebtRepo) FindOpenPastDue(_ context.Context, asOf time.Time, limit int) ([]finance.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.Debt
	for _, d := range r.debts {
		if d.Status.IsTerminal() || d.Status == finance.DebtStatusOverdue {
			continue
		}
		if d.DueDate != nil && asOf.After(*d.DueDate) {
			out = append(out, cloneDebt(d))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memDebtRepo) Save(_ context.Context, debt *finance.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debts[debt.ID] = cloneDebt(*debt)
	return nil
}

func (r *memDebtRepo) SaveWithLock(_ context.Context, debt *finance.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.debts[debt.ID]
	if ok && stored.Version >= debt.Version {
		return shared.ErrConcurrencyConflict
	}
	r.debts[debt.ID] = cloneDebt(*debt)
	return nil
}

func (r *memDebtRepo) CountForCompany(ctx context.Context, companyID uuid.UUID, filter finance.DebtFilter) (int64, error) {
	debts, _ := r.FindAllForCompany(ctx, companyID, filter)
	return int64(len(debts)), nil
}

func (r *memDebtRepo) SumRemainingForCompany(_ context.Context, companyID uuid.UUID, debtType finance.DebtType) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, d := range r.debts {
		if d.CompanyID == companyID && d.DebtType == debtType && !d.Status.IsTerminal() {
			sum = sum.Add(d.RemainingAmount)
		}
	}
	return sum, nil
}

type memTransactionRepo struct {
	mu  sync.Mutex
	txs map[uuid.UUID]finance.Transaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{txs: make(map[uuid.UUID]finance.Transaction)}
}

func (r *memTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx, ok := r.txs[id]; ok {
		c := tx
		return &c, nil
	}
	return nil, nil
}

func (r *memTransactionRepo) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*finance.Transaction, error) {
	tx, err := r.FindByID(ctx, id)
	if err != nil || tx == nil || tx.CompanyID != companyID {
		return nil, err
	}
	return tx, nil
}

func (r *memTransactionRepo) FindAllForCompany(_ context.Context, companyID uuid.UUID, _ finance.TransactionFilter) ([]finance.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.Transaction
	for _, tx := range r.txs {
		if tx.CompanyID == companyID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.Before(out[j].TransactionDate) })
	return out, nil
}

func (r *memTransactionRepo) FindByPeriod(_ context.Context, companyID uuid.UUID, year, month int) ([]finance.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.Transaction
	for _, tx := range r.txs {
		y, m := tx.Period()
		if tx.CompanyID == companyID && y == year && m == month && !tx.IsVoided() {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTransactionRepo) Save(_ context.Context, tx *finance.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = *tx
	return nil
}

func (r *memTransactionRepo) SaveWithLock(_ context.Context, tx *finance.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.txs[tx.ID]
	if ok && stored.Version >= tx.Version {
		return shared.ErrConcurrencyConflict
	}
	r.txs[tx.ID] = *tx
	return nil
}

func (r *memTransactionRepo) CountForCompany(ctx context.Context, companyID uuid.UUID, filter finance.TransactionFilter) (int64, error) {
	txs, _ := r.FindAllForCompany(ctx, companyID, filter)
	return int64(len(txs)), nil
}

func (r *memTransactionRepo) SumByPeriod(_ context.Context, companyID uuid.UUID, year, month int) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]finance.Transaction, 0, len(r.txs))
	for _, tx := range r.txs {
		all = append(all, tx)
	}
	revenue, expenses := finance.SummarizePeriod(all, companyID, year, month)
	return revenue, expenses, nil
}

type memCashAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]finance.CashAccount
}

func newMemCashAccountRepo() *memCashAccountRepo {
	return &memCashAccountRepo{accounts: make(map[uuid.UUID]finance.CashAccount)}
}

func (r *memCashAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.CashAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		c := a
		return &c, nil
	}
	return nil, nil
}

func (r *memCashAccountRepo) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*finance.CashAccount, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil || a == nil || a.CompanyID != companyID {
		return nil, err
	}
	return a, nil
}

func (r *memCashAccountRepo) FindAllForCompany(_ context.Context, companyID uuid.UUID, _ finance.CashAccountFilter) ([]finance.CashAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.CashAccount
	for _, a := range r.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memCashAccountRepo) Save(_ context.Context, account *finance.CashAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = *account
	return nil
}

func (r *memCashAccountRepo) SaveWithLock(_ context.Context, account *finance.CashAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.ID]
	if ok && stored.Version >= account.Version {
		return shared.ErrConcurrencyConflict
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *memCashAccountRepo) ExistsByName(_ context.Context, companyID uuid.UUID, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.CompanyID == companyID && a.AccountName == name {
			return true, nil
		}
	}
	return false, nil
}

type periodKey struct {
	company uuid.UUID
	year    int
	month   int
}

type memProfitRepo struct {
	mu      sync.Mutex
	records map[periodKey]finance.ProfitRecord
}

func newMemProfitRepo() *memProfitRepo {
	return &memProfitRepo{records: make(map[periodKey]finance.ProfitRecord)}
}

func (r *memProfitRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.ProfitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			c := rec
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memProfitRepo) FindByPeriod(_ context.Context, companyID uuid.UUID, year, month int) (*finance.ProfitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[periodKey{companyID, year, month}]; ok {
		c := rec
		return &c, nil
	}
	return nil, nil
}

func (r *memProfitRepo) FindAllForCompany(_ context.Context, companyID uuid.UUID, _ shared.Filter) ([]finance.ProfitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.ProfitRecord
	for _, rec := range r.records {
		if rec.CompanyID == companyID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memProfitRepo) Upsert(_ context.Context, record *finance.ProfitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey{record.CompanyID, record.PeriodYear, record.PeriodMonth}
	if existing, ok := r.records[key]; ok {
		existing.Revenue = record.Revenue
		existing.Expenses = record.Expenses
		existing.NetProfit = record.NetProfit
		existing.ProfitMargin = record.ProfitMargin
		r.records[key] = existing
		return nil
	}
	r.records[key] = *record
	return nil
}

func (r *memProfitRepo) Save(_ context.Context, record *finance.ProfitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[periodKey{record.CompanyID, record.PeriodYear, record.PeriodMonth}] = *record
	return nil
}

// memIdempotencyStore is a map-backed idempotency store for tests
type memIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]struct{})}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// testEnv bundles the fakes behind a NoOpTransactionScope
type testEnv struct {
	debtRepo    *memDebtRepo
	txRepo      *memTransactionRepo
	accountRepo *memCashAccountRepo
	profitRepo  *memProfitRepo
	scope       *NoOpTransactionScope
	idempotency *memIdempotencyStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		debtRepo:    newMemDebtRepo(),
		txRepo:      newMemTransactionRepo(),
		accountRepo: newMemCashAccountRepo(),
		profitRepo:  newMemProfitRepo(),
		idempotency: newMemIdempotencyStore(),
	}
	env.scope = NewNoOpTransactionScope(env.debtRepo, env.txRepo, env.accountRepo, env.profitRepo)
	return env
}

var _ finance.DebtRepository = (*memDebtRepo)(nil)
var _ finance.TransactionRepository = (*memTransactionRepo)(nil)
var _ finance.CashAccountRepository = (*memCashAccountRepo)(nil)
var _ finance.ProfitRecordRepository = (*memProfitRepo)(nil)
var _ shared.IdempotencyStore = (*memIdempotencyStore)(nil)
