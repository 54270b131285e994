package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// backupVersion guards against importing archives written by a future,
// incompatible format.
const backupVersion = 1

// Backup is the JSON archive of one user's data.
type Backup struct {
	Version    int                         `json:"version"`
	ExportedAt time.Time                   `json:"exported_at"`
	Accounts   []core.Account              `json:"accounts"`
	Categories []core.Category             `json:"categories"`
	Txns       []core.Transaction          `json:"transactions"`
	Budgets    []core.Budget               `json:"budgets"`
	Goals      []core.Goal                 `json:"goals"`
	Recurring  []core.RecurringTransaction `json:"recurring_transactions"`
	Reminders  []core.Reminder             `json:"reminders"`
	Tags       []core.Tag                  `json:"tags"`
}

// BackupService exports and restores user data as JSON.
type BackupService struct {
	storage *storage.Repository
}

func NewBackupService(storage *storage.Repository) *BackupService {
	return &BackupService{storage: storage}
}

// Export collects everything the user owns into one archive.
func (s *BackupService) Export(ctx context.Context, userID int64) (*Backup, error) {
	b := &Backup{Version: backupVersion, ExportedAt: time.Now().UTC()}
	var err error

	if b.Accounts, err = s.storage.ListAccounts(ctx, userID); err != nil {
		return nil, fmt.Errorf("export accounts: %w", err)
	}
	if b.Categories, err = s.storage.ListCategories(ctx, userID); err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	if b.Txns, err = s.storage.ListTransactions(ctx, userID, storage.TransactionFilter{Limit: -1}); err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	if b.Budgets, err = s.storage.ListBudgets(ctx, userID, nil); err != nil {
		return nil, fmt.Errorf("export budgets: %w", err)
	}
	if b.Goals, err = s.storage.ListGoals(ctx, userID); err != nil {
		return nil, fmt.Errorf("export goals: %w", err)
	}
	if b.Recurring, err = s.storage.ListRecurring(ctx, userID); err != nil {
		return nil, fmt.Errorf("export recurring transactions: %w", err)
	}
	if b.Reminders, err = s.storage.ListReminders(ctx, userID, true); err != nil {
		return nil, fmt.Errorf("export reminders: %w", err)
	}
	if b.Tags, err = s.storage.ListTags(ctx, userID); err != nil {
		return nil, fmt.Errorf("export tags: %w", err)
	}
	return b, nil
}

// ImportResultCounts reports what an archive restore created.
type ImportResultCounts struct {
	Accounts   int `json:"accounts"`
	Categories int `json:"categories"`
}

// Import restores accounts and user categories from an archive. The restore
// is strictly additive with no merge key: every record is created fresh with
// its id and ownership stripped, so importing the same archive twice
// duplicates it. A failure partway through leaves the records created so
// far; there is no compensating rollback. Transactions and the rest are
// intentionally not restored; replaying them would corrupt live balances and
// budget history.
func (s *BackupService) Import(ctx context.Context, userID int64, b *Backup) (*ImportResultCounts, error) {
	// ExportedAt doubles as the is-this-a-backup check; an empty document
	// or arbitrary JSON fails here before anything is written.
	if b.ExportedAt.IsZero() {
		return nil, fmt.Errorf("not a backup archive: missing exported_at")
	}
	if b.Version > backupVersion {
		return nil, fmt.Errorf("backup version %d is newer than supported version %d", b.Version, backupVersion)
	}

	counts := &ImportResultCounts{}
	for _, a := range b.Accounts {
		restored := core.Account{
			UserID:   userID,
			Name:     a.Name,
			Type:     a.Type,
			Balance:  a.Balance,
			Currency: a.Currency,
		}
		if err := restored.Validate(); err != nil {
			return counts, fmt.Errorf("account %q: %w", a.Name, err)
		}
		if err := s.storage.CreateAccount(ctx, &restored); err != nil {
			return counts, err
		}
		counts.Accounts++
	}

	// Global categories are shared rows that already exist in every
	// installation; only user-owned ones are restored.
	for _, c := range b.Categories {
		if c.UserID == nil {
			continue
		}
		restored := core.Category{UserID: &userID, Name: c.Name, Type: c.Type, Color: c.Color}
		if err := restored.Validate(); err != nil {
			return counts, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if err := s.storage.CreateCategory(ctx, &restored); err != nil {
			return counts, err
		}
		counts.Categories++
	}

	return counts, nil
}
