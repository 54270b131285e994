package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	budgets := services.NewBudgetService(repo, nil, 0)
	transactions := services.NewTransactionService(repo, nil, budgets)
	srv := NewServer("0", Deps{
		Repo:         repo,
		Transactions: transactions,
		Budgets:      budgets,
		Goals:        services.NewGoalService(repo),
		Reminders:    services.NewReminderService(repo, nil),
		Recommender:  services.NewRecommender(repo, 0),
		Importer:     services.NewImporter(repo, transactions),
		Backups:      services.NewBackupService(repo),
		Insights:     services.NewInsightsService(repo, budgets, nil),
		Dashboard:    services.NewDashboardService(repo, budgets),
	})
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

// do runs one request through the full middleware chain as user 1.
func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(userIDHeader, "1")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createAccount(t *testing.T, srv *Server, name string) accountJSON {
	t.Helper()
	rec := do(t, srv, "POST", "/api/accounts", map[string]string{
		"name": name, "type": "checking", "balance": "1000.00", "currency": "EUR",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[accountJSON](t, rec)
}

func createCategory(t *testing.T, srv *Server, name string) categoryJSON {
	t.Helper()
	rec := do(t, srv, "POST", "/api/categories", map[string]string{
		"name": name, "type": "expense", "color": "#ff0000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[categoryJSON](t, rec)
}

func TestMissingUserHeader(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/accounts", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestInvalidUserHeader(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/accounts", nil)
	req.Header.Set(userIDHeader, "not-a-number")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Main")
	if account.BalanceCents != 100_000 || account.Balance != "1000.00" {
		t.Errorf("balance = %d %q", account.BalanceCents, account.Balance)
	}

	rec := do(t, srv, "PUT", fmt.Sprintf("/api/accounts/%d", account.ID),
		map[string]string{"name": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	if got := decode[accountJSON](t, rec); got.Name != "Renamed" {
		t.Errorf("name = %q", got.Name)
	}

	if rec := do(t, srv, "DELETE", fmt.Sprintf("/api/accounts/%d", account.ID), nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	if rec := do(t, srv, "GET", fmt.Sprintf("/api/accounts/%d", account.ID), nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestGlobalCategoryReadOnly(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, "GET", "/api/categories", nil)
	categories := decode[[]categoryJSON](t, rec)
	var global *categoryJSON
	for i := range categories {
		if categories[i].Global {
			global = &categories[i]
			break
		}
	}
	if global == nil {
		t.Fatal("no seeded global categories")
	}

	rec = do(t, srv, "PUT", fmt.Sprintf("/api/categories/%d", global.ID),
		map[string]string{"name": "Hijacked"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("updating a global category: status %d, want 403", rec.Code)
	}
}

func TestTransactionWithSplits(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Main")
	food := createCategory(t, srv, "Food")
	household := createCategory(t, srv, "Household")

	rec := do(t, srv, "POST", "/api/transactions", map[string]any{
		"account_id":  account.ID,
		"category_id": food.ID,
		"type":        "expense",
		"amount":      "50.00",
		"description": "supermarket run",
		"date":        "2024-06-01",
		"splits": []map[string]any{
			{"category_id": food.ID, "amount": "30.00"},
			{"category_id": household.ID, "amount": "20.00"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[transactionJSON](t, rec)
	if !created.IsSplit || len(created.Splits) != 2 {
		t.Errorf("is_split = %v, splits = %d", created.IsSplit, len(created.Splits))
	}

	// Mismatched split sum is rejected.
	rec = do(t, srv, "POST", "/api/transactions", map[string]any{
		"account_id":  account.ID,
		"type":        "expense",
		"amount":      "50.00",
		"description": "bad split",
		"date":        "2024-06-01",
		"splits": []map[string]any{
			{"category_id": food.ID, "amount": "10.00"},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched splits: status %d, want 400", rec.Code)
	}

	rec = do(t, srv, "GET", "/api/accounts", nil)
	accounts := decode[[]accountJSON](t, rec)
	if accounts[0].BalanceCents != 95_000 {
		t.Errorf("balance after expense = %d, want 95000", accounts[0].BalanceCents)
	}
}

func TestTransactionListFilters(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Main")

	for _, tc := range []struct{ amount, date, kind string }{
		{"10.00", "2024-06-01", "expense"},
		{"20.00", "2024-06-15", "expense"},
		{"500.00", "2024-07-01", "income"},
	} {
		rec := do(t, srv, "POST", "/api/transactions", map[string]any{
			"account_id": account.ID, "type": tc.kind, "amount": tc.amount,
			"description": "seed", "date": tc.date,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed: status %d body %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, srv, "GET", "/api/transactions?type=expense&from=2024-06-10&to=2024-06-30", nil)
	txns := decode[[]transactionJSON](t, rec)
	if len(txns) != 1 || txns[0].Amount != "20.00" {
		t.Fatalf("filtered list = %+v", txns)
	}
}

func TestTransferEndpoint(t *testing.T) {
	srv := newTestServer(t)
	from := createAccount(t, srv, "Checking")
	to := createAccount(t, srv, "Savings")

	rec := do(t, srv, "POST", "/api/transfers", map[string]any{
		"from_account_id": from.ID,
		"to_account_id":   to.ID,
		"amount":          "250.00",
		"date":            "2024-06-01",
		"description":     "monthly savings",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer: status %d body %s", rec.Code, rec.Body.String())
	}
	if decode[map[string]string](t, rec)["transfer_id"] == "" {
		t.Error("missing transfer_id")
	}

	// Same-account transfers are rejected.
	rec = do(t, srv, "POST", "/api/transfers", map[string]any{
		"from_account_id": from.ID,
		"to_account_id":   from.ID,
		"amount":          "10.00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("same account: status %d, want 400", rec.Code)
	}
}

func TestBudgetDuplicateConflict(t *testing.T) {
	srv := newTestServer(t)
	food := createCategory(t, srv, "Food")

	body := map[string]any{
		"category_id": food.ID, "amount": "300.00",
		"period_type": "monthly", "year": 2024, "month": 6,
	}
	if rec := do(t, srv, "POST", "/api/budgets", body); rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, srv, "POST", "/api/budgets", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", rec.Code)
	}
}

func TestBudgetStatusReflectsSpend(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Main")
	food := createCategory(t, srv, "Food")

	rec := do(t, srv, "POST", "/api/budgets", map[string]any{
		"category_id": food.ID, "amount": "100.00",
		"period_type": "monthly", "year": 2024, "month": 6,
	})
	budget := decode[budgetJSON](t, rec)

	do(t, srv, "POST", "/api/transactions", map[string]any{
		"account_id": account.ID, "category_id": food.ID, "type": "expense",
		"amount": "90.00", "description": "groceries", "date": "2024-06-10",
	})

	rec = do(t, srv, "GET", fmt.Sprintf("/api/budgets/%d", budget.ID), nil)
	got := decode[budgetJSON](t, rec)
	if got.SpentCents != 9_000 || got.PercentUsed != 90 || got.Status != "warning" {
		t.Errorf("status = %+v", got)
	}
}

func TestApplyRecommendationCreatesCurrentMonthBudget(t *testing.T) {
	srv := newTestServer(t)
	food := createCategory(t, srv, "Food")

	rec := do(t, srv, "POST", "/api/budgets/recommendations/apply", map[string]any{
		"category_id": food.ID, "amount": "165.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply: status %d body %s", rec.Code, rec.Body.String())
	}
	got := decode[budgetJSON](t, rec)
	now := time.Now()
	if got.CategoryID != food.ID || got.AmountCents != 16_500 {
		t.Errorf("budget = %+v", got)
	}
	if got.PeriodType != "monthly" || got.Year != now.Year() || got.Month != int(now.Month()) {
		t.Errorf("period = %s %d-%d, want current month", got.PeriodType, got.Year, got.Month)
	}
}

func TestGoalContributionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, "POST", "/api/goals", map[string]string{
		"name": "Vacation", "target": "1000.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal: status %d body %s", rec.Code, rec.Body.String())
	}
	goal := decode[goalJSON](t, rec)

	rec = do(t, srv, "POST", fmt.Sprintf("/api/goals/%d/contribute", goal.ID),
		map[string]string{"amount": "400.00", "date": "2024-06-01"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribute: status %d body %s", rec.Code, rec.Body.String())
	}
	got := decode[goalJSON](t, rec)
	if got.CurrentCents != 40_000 || got.ProgressPercent != 40 || got.Completed {
		t.Errorf("goal after contribution = %+v", got)
	}

	rec = do(t, srv, "GET", fmt.Sprintf("/api/goals/%d/contributions", goal.ID), nil)
	if contributions := decode[[]contributionJSON](t, rec); len(contributions) != 1 {
		t.Errorf("contributions = %d, want 1", len(contributions))
	}
}

func TestCompleteReminderReturnsSuccessor(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, "POST", "/api/reminders", map[string]any{
		"title": "pay rent", "due_date": "2024-06-01",
		"recurring": true, "frequency": "monthly",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	reminder := decode[reminderJSON](t, rec)

	rec = do(t, srv, "POST", fmt.Sprintf("/api/reminders/%d/complete", reminder.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status %d body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Completed bool          `json:"completed"`
		Next      *reminderJSON `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Completed || body.Next == nil {
		t.Fatalf("body = %+v", body)
	}
	if body.Next.DueDate != "2024-07-01" {
		t.Errorf("successor due = %s, want 2024-07-01", body.Next.DueDate)
	}
}

func TestImportCSVEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Main")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.WriteField("account_id", fmt.Sprintf("%d", account.ID))
	part, _ := form.CreateFormFile("file", "bank.csv")
	io.Copy(part, strings.NewReader(
		"date,description,amount,type\n2024-06-01,coffee,3.50,expense\n2024-06-02,salary,2500.00,income\n"))
	form.Close()

	req := httptest.NewRequest("POST", "/api/import", &buf)
	req.Header.Set(userIDHeader, "1")
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", rec.Code, rec.Body.String())
	}
	result := decode[services.ImportResult](t, rec)
	if result.Imported != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, "Main")
	food := createCategory(t, srv, "Food")

	rec := do(t, srv, "POST", "/api/transactions", map[string]any{
		"account_id": account.ID, "category_id": food.ID, "type": "expense",
		"amount": "25.00", "description": "lunch",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, "GET", "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d body %s", rec.Code, rec.Body.String())
	}
	dashboard := decode[services.Dashboard](t, rec)
	if dashboard.ExpenseCents != 2_500 {
		t.Errorf("expense = %d, want 2500", dashboard.ExpenseCents)
	}
}

// Budget and goal writes must show on the next dashboard read, not after the
// cache TTL runs out.
func TestDashboardInvalidatedOnBudgetAndGoalWrites(t *testing.T) {
	srv := newTestServer(t)
	food := createCategory(t, srv, "Food")

	// Prime the cache while the month is empty.
	rec := do(t, srv, "GET", "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d body %s", rec.Code, rec.Body.String())
	}
	if d := decode[services.Dashboard](t, rec); len(d.Budgets) != 0 || len(d.Goals) != 0 {
		t.Fatalf("dashboard should start empty, got %+v", d)
	}

	now := time.Now()
	rec = do(t, srv, "POST", "/api/budgets", map[string]any{
		"category_id": food.ID, "amount": "100.00",
		"period_type": "monthly", "year": now.Year(), "month": int(now.Month()),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, srv, "POST", "/api/goals", map[string]string{
		"name": "Vacation", "target": "500.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, "GET", "/api/dashboard", nil)
	d := decode[services.Dashboard](t, rec)
	if len(d.Budgets) != 1 || len(d.Goals) != 1 {
		t.Errorf("dashboard after writes = %d budgets, %d goals, want 1 each",
			len(d.Budgets), len(d.Goals))
	}
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createAccount(t, srv, "Main")

	rec := do(t, srv, "GET", "/api/export/all", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	backup := decode[services.Backup](t, rec)
	if backup.Version != 1 || len(backup.Accounts) != 1 {
		t.Errorf("backup = version %d, %d accounts", backup.Version, len(backup.Accounts))
	}
}

func TestInsightsDisabled(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, "POST", "/api/insights/ai", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, "GET", "/api/accounts", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
