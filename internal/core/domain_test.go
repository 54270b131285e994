package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:      1,
		AccountID:   1,
		Type:        TransactionExpense,
		Amount:      Money{Cents: 1500},
		Description: "groceries",
		Date:        NewDate(2024, 5, 10),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "zero date", mutate: func(tx *Transaction) { tx.Date = Date{} }, wantErr: true},
		{name: "empty description", mutate: func(tx *Transaction) { tx.Description = "   " }, wantErr: true},
		{name: "bad type", mutate: func(tx *Transaction) { tx.Type = "refund" }, wantErr: true},
		{name: "zero amount", mutate: func(tx *Transaction) { tx.Amount = Money{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		UserID:     1,
		CategoryID: 2,
		Amount:     Money{Cents: 50000},
		Period:     Period{Type: PeriodMonthly, Year: 2024, Month: 6},
	}

	if err := valid.Validate(DefaultMinYear); err != nil {
		t.Errorf("valid budget rejected: %v", err)
	}

	zeroTarget := valid
	zeroTarget.Amount = Money{}
	if err := zeroTarget.Validate(DefaultMinYear); err != nil {
		t.Errorf("zero-target budget should be allowed (yields 0%% used): %v", err)
	}

	noCategory := valid
	noCategory.CategoryID = 0
	if err := noCategory.Validate(DefaultMinYear); err == nil {
		t.Error("budget without category should be rejected")
	}

	oldYear := valid
	oldYear.Period.Year = 2019
	if err := oldYear.Validate(DefaultMinYear); err == nil {
		t.Error("budget below year floor should be rejected")
	}
}

func TestReminderValidate(t *testing.T) {
	base := Reminder{
		UserID:  1,
		Title:   "pay rent",
		DueDate: NewDate(2024, 6, 1),
	}

	if err := base.Validate(); err != nil {
		t.Errorf("valid reminder rejected: %v", err)
	}

	recurring := base
	recurring.Recurring = true
	recurring.Frequency = FrequencyMonthly
	if err := recurring.Validate(); err != nil {
		t.Errorf("monthly recurring reminder rejected: %v", err)
	}

	badFreq := base
	badFreq.Recurring = true
	badFreq.Frequency = FrequencyWeekly
	if err := badFreq.Validate(); err == nil {
		t.Error("recurring reminders only advance monthly or yearly")
	}

	withAmount := base
	withAmount.Amount = &Money{Cents: -5}
	if err := withAmount.Validate(); err == nil {
		t.Error("negative optional amount should be rejected")
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	valid := RecurringTransaction{
		UserID:      1,
		AccountID:   1,
		Type:        TransactionExpense,
		Amount:      Money{Cents: 999},
		Description: "streaming subscription",
		Frequency:   FrequencyMonthly,
		NextDue:     NewDate(2024, 7, 1),
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("valid recurring transaction rejected: %v", err)
	}

	transfer := valid
	transfer.Type = TransactionTransfer
	if err := transfer.Validate(); err == nil {
		t.Error("recurring transfers are not supported")
	}

	badFreq := valid
	badFreq.Frequency = "fortnightly"
	if err := badFreq.Validate(); err == nil {
		t.Error("unknown frequency should be rejected")
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 3, 15, 23, 59, 58, 0, time.UTC)
	d := DateOf(ts)
	if d.Year() != 2024 || d.Month() != 3 || d.Day() != 15 {
		t.Errorf("DateOf = %v", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Error("DateOf should truncate to midnight")
	}
}

func TestDateAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  Date
		months int
		want   Date
	}{
		{name: "plain step", start: NewDate(2024, 3, 15), months: 1, want: NewDate(2024, 4, 15)},
		{name: "clamps to leap february", start: NewDate(2024, 1, 31), months: 1, want: NewDate(2024, 2, 29)},
		{name: "clamps to short february", start: NewDate(2025, 1, 31), months: 1, want: NewDate(2025, 2, 28)},
		{name: "clamps thirty day month", start: NewDate(2024, 5, 31), months: 1, want: NewDate(2024, 6, 30)},
		{name: "year rollover", start: NewDate(2024, 12, 15), months: 1, want: NewDate(2025, 1, 15)},
		{name: "quarter step", start: NewDate(2024, 11, 30), months: 3, want: NewDate(2025, 2, 28)},
		{name: "full year keeps day", start: NewDate(2024, 6, 30), months: 12, want: NewDate(2025, 6, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.AddMonths(tt.months); !got.Equal(tt.want.Time) {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.months, got, tt.want)
			}
		})
	}
}
