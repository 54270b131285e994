package core

import (
	"testing"
	"time"
)

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		name      string
		period    Period
		wantStart Date
		wantEnd   Date
	}{
		{
			name:      "regular month",
			period:    Period{Type: PeriodMonthly, Year: 2024, Month: 4},
			wantStart: NewDate(2024, 4, 1),
			wantEnd:   NewDate(2024, 4, 30),
		},
		{
			name:      "february leap year",
			period:    Period{Type: PeriodMonthly, Year: 2024, Month: 2},
			wantStart: NewDate(2024, 2, 1),
			wantEnd:   NewDate(2024, 2, 29),
		},
		{
			name:      "february non-leap",
			period:    Period{Type: PeriodMonthly, Year: 2023, Month: 2},
			wantStart: NewDate(2023, 2, 1),
			wantEnd:   NewDate(2023, 2, 28),
		},
		{
			name:      "december",
			period:    Period{Type: PeriodMonthly, Year: 2024, Month: 12},
			wantStart: NewDate(2024, 12, 1),
			wantEnd:   NewDate(2024, 12, 31),
		},
		{
			name:      "yearly",
			period:    Period{Type: PeriodYearly, Year: 2024},
			wantStart: NewDate(2024, 1, 1),
			wantEnd:   NewDate(2024, 12, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.period.Range()
			if !start.Equal(tt.wantStart.Time) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd.Time) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{Type: PeriodMonthly, Year: 2024, Month: 3}

	if !p.Contains(NewDate(2024, 3, 1)) {
		t.Error("first day of month should be contained")
	}
	if !p.Contains(NewDate(2024, 3, 31)) {
		t.Error("last day of month should be contained")
	}
	// A transaction dated the last day of the prior month must be excluded.
	if p.Contains(NewDate(2024, 2, 29)) {
		t.Error("last day of prior month should not be contained")
	}
	if p.Contains(NewDate(2024, 4, 1)) {
		t.Error("first day of next month should not be contained")
	}
}

func TestPeriodValidate(t *testing.T) {
	tests := []struct {
		name    string
		period  Period
		wantErr error
	}{
		{name: "valid monthly", period: Period{Type: PeriodMonthly, Year: 2024, Month: 6}},
		{name: "valid yearly", period: Period{Type: PeriodYearly, Year: 2024}},
		{name: "month zero", period: Period{Type: PeriodMonthly, Year: 2024}, wantErr: ErrInvalidMonth},
		{name: "month thirteen", period: Period{Type: PeriodMonthly, Year: 2024, Month: 13}, wantErr: ErrInvalidMonth},
		{name: "yearly with month", period: Period{Type: PeriodYearly, Year: 2024, Month: 3}, wantErr: ErrInvalidMonth},
		{name: "below year floor", period: Period{Type: PeriodMonthly, Year: 2019, Month: 1}, wantErr: ErrInvalidYear},
		{name: "bad type", period: Period{Type: "weekly", Year: 2024, Month: 1}, wantErr: ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate(DefaultMinYear)
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPreviousMonths(t *testing.T) {
	// Mid-January: the three trailing full months cross the year boundary.
	ref := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	got := PreviousMonths(ref, 3)

	want := []Period{
		{Type: PeriodMonthly, Year: 2023, Month: 12},
		{Type: PeriodMonthly, Year: 2023, Month: 11},
		{Type: PeriodMonthly, Year: 2023, Month: 10},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d periods, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("period[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPeriodForDate(t *testing.T) {
	ref := time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)

	if p := PeriodForDate(ref, PeriodMonthly); p != (Period{Type: PeriodMonthly, Year: 2024, Month: 7}) {
		t.Errorf("monthly = %+v", p)
	}
	if p := PeriodForDate(ref, PeriodYearly); p != (Period{Type: PeriodYearly, Year: 2024}) {
		t.Errorf("yearly = %+v", p)
	}
}
