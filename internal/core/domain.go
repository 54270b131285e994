package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"

	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"

	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"

	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

type (
	AccountType     string
	CategoryType    string
	TransactionType string
	Frequency       string

	// Date is a calendar day. The time-of-day component is always midnight UTC.
	Date struct {
		time.Time
	}

	// Account is a container of funds. The balance is denormalized: every
	// transaction write adjusts it inside the same database transaction.
	Account struct {
		ID       int64
		UserID   int64
		Name     string
		Type     AccountType
		Balance  Money
		Currency string
		Active   bool
	}

	// Category classifies transactions. A nil UserID marks a global category
	// shared read-only across all users. Categories are soft-deleted via the
	// active flag so historical transactions keep their references.
	Category struct {
		ID     int64
		UserID *int64
		Name   string
		Type   CategoryType
		Color  string
		Active bool
	}

	// Transaction is a single movement of money. Amount is always positive;
	// direction is implied by Type. A transfer is stored as two rows (expense
	// on the source account, income on the destination) sharing a TransferID.
	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		CategoryID  *int64
		Type        TransactionType
		Amount      Money
		Description string
		Date        Date
		Notes       string
		IsSplit     bool
		TransferID  string
		Splits      []TransactionSplit
		Tags        []Tag
	}

	// TransactionSplit attributes part of a transaction to another category
	// for budgeting. Once a transaction is split, spend is attributed
	// exclusively through its splits; the parent's own category no longer
	// counts toward budgets.
	TransactionSplit struct {
		ID            int64
		TransactionID int64
		CategoryID    int64
		Amount        Money
		Description   string
	}

	// Budget couples a spending target to a category and a period.
	// At most one budget exists per (user, category, period) tuple.
	Budget struct {
		ID       int64
		UserID   int64
		CategoryID int64
		Amount   Money
		Period   Period
		Active   bool
	}

	// Goal is a savings target. Current is a denormalized running total,
	// authoritative over the contribution ledger; contributions are
	// append-only and never edited or deleted.
	Goal struct {
		ID            int64
		UserID        int64
		Name          string
		Target        Money
		Current       Money
		TargetDate    *Date
		CategoryLabel string
		Completed     bool
	}

	// GoalContribution is one row of the append-only contribution ledger.
	GoalContribution struct {
		ID     int64
		GoalID int64
		UserID int64
		Amount Money
		Note   string
		Date   Date
	}

	// RecurringTransaction is a template the recurring-worker materializes
	// into real transactions when NextDue is reached.
	RecurringTransaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		CategoryID  *int64
		Type        TransactionType
		Amount      Money
		Description string
		Frequency   Frequency
		NextDue     Date
		Active      bool
	}

	// Reminder is a dated to-do. Completing a recurring reminder marks it
	// completed and inserts the next occurrence one month or one year later;
	// the completed row is kept, not deleted.
	Reminder struct {
		ID          int64
		UserID      int64
		CategoryID  *int64
		Title       string
		Description string
		Amount      *Money
		DueDate     Date
		Recurring   bool
		Frequency   Frequency
		Completed   bool
		CompletedAt *time.Time
	}

	// Tag labels transactions, many-to-many. Name is unique per user.
	Tag struct {
		ID     int64
		UserID int64
		Name   string
		Color  string
	}

	// SavedFilter stores a named filter blob for the client. Write-only on
	// the server side; no server read path interprets the payload.
	SavedFilter struct {
		ID      int64
		UserID  int64
		Name    string
		Type    string
		Filters string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrDuplicateBudget  = errors.New("budget already exists for this period")
	ErrSameAccount      = errors.New("source and destination accounts are the same")
)

const maxDescriptionLen = 200

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) Day() int   { return d.Time.Day() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Year() int  { return d.Time.Year() }

// AddMonths advances the date by n months, clamping to the last day of the
// target month. An anchor on Jan 31 lands on Feb 29, not Mar 2.
func (d Date) AddMonths(n int) Date {
	year, month := d.Year(), d.Month()+n
	for month > 12 {
		month -= 12
		year++
	}
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return NewDate(year, month, day)
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountInvestment, AccountCash:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// ValidReminder reports whether the frequency is allowed for recurring
// reminders, which only advance by one month or one year.
func (f Frequency) ValidReminder() bool {
	return f == FrequencyMonthly || f == FrequencyYearly
}

func validDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLen {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidType
	}
	if a.Currency == "" {
		return errors.New("empty currency")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validDescription(t.Description); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return t.Amount.Validate()
}

func (s TransactionSplit) Validate() error {
	if s.CategoryID == 0 {
		return errors.New("split requires a category")
	}
	return s.Amount.Validate()
}

func (b Budget) Validate(minYear int) error {
	if b.CategoryID == 0 {
		return errors.New("budget requires a category")
	}
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return b.Period.Validate(minYear)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.TargetDate != nil {
		return g.TargetDate.Validate()
	}
	return nil
}

func (c GoalContribution) Validate() error {
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	return c.Date.Validate()
}

func (r RecurringTransaction) Validate() error {
	if err := validDescription(r.Description); err != nil {
		return err
	}
	if !r.Type.Valid() || r.Type == TransactionTransfer {
		return ErrInvalidType
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if err := r.NextDue.Validate(); err != nil {
		return err
	}
	return r.Amount.Validate()
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("empty title")
	}
	if err := r.DueDate.Validate(); err != nil {
		return err
	}
	if r.Amount != nil {
		if err := r.Amount.Validate(); err != nil {
			return err
		}
	}
	if r.Recurring && !r.Frequency.ValidReminder() {
		return ErrInvalidFrequency
	}
	return nil
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
