package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// GoalService wraps goal CRUD and the contribution ledger.
type GoalService struct {
	storage *storage.Repository
}

func NewGoalService(storage *storage.Repository) *GoalService {
	return &GoalService{storage: storage}
}

func (s *GoalService) Create(ctx context.Context, g *core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.storage.CreateGoal(ctx, g)
}

func (s *GoalService) Update(ctx context.Context, g *core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateGoal(ctx, g)
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	return s.storage.DeleteGoal(ctx, userID, id)
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (*core.Goal, error) {
	return s.storage.GetGoal(ctx, userID, id)
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, userID)
}

// Contribute appends to the ledger and returns the goal with its updated
// running total and completion flag.
func (s *GoalService) Contribute(ctx context.Context, c *core.GoalContribution) (*core.Goal, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return s.storage.Contribute(ctx, c)
}

func (s *GoalService) Contributions(ctx context.Context, userID, goalID int64) ([]core.GoalContribution, error) {
	return s.storage.ListContributions(ctx, userID, goalID)
}

// Progress returns whole-percent progress toward the target, capped at 100.
func GoalProgress(g *core.Goal) int {
	if g.Target.Cents <= 0 {
		return 0
	}
	p := int(g.Current.Cents * 100 / g.Target.Cents)
	if p > 100 {
		p = 100
	}
	return p
}
