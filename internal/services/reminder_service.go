package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ReminderService owns reminder CRUD, completion and the due-notification
// sweep.
type ReminderService struct {
	storage   *storage.Repository
	publisher EventPublisher
}

func NewReminderService(storage *storage.Repository, publisher EventPublisher) *ReminderService {
	return &ReminderService{storage: storage, publisher: publisher}
}

func (s *ReminderService) Create(ctx context.Context, rem *core.Reminder) error {
	if err := rem.Validate(); err != nil {
		return err
	}
	return s.storage.CreateReminder(ctx, rem)
}

func (s *ReminderService) Update(ctx context.Context, rem *core.Reminder) error {
	if err := rem.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateReminder(ctx, rem)
}

func (s *ReminderService) Delete(ctx context.Context, userID, id int64) error {
	return s.storage.DeleteReminder(ctx, userID, id)
}

func (s *ReminderService) Get(ctx context.Context, userID, id int64) (*core.Reminder, error) {
	return s.storage.GetReminder(ctx, userID, id)
}

func (s *ReminderService) List(ctx context.Context, userID int64, includeCompleted bool) ([]core.Reminder, error) {
	return s.storage.ListReminders(ctx, userID, includeCompleted)
}

// Complete marks a reminder done. For recurring reminders the next
// occurrence is returned; nil means no successor was created.
func (s *ReminderService) Complete(ctx context.Context, userID, id int64, now time.Time) (*core.Reminder, error) {
	return s.storage.CompleteReminder(ctx, userID, id, now)
}

// SweepDue publishes a due event for every open reminder at or past its due
// date. Events are at-least-once: a reminder stays due until completed, so
// consumers must tolerate repeats.
func (s *ReminderService) SweepDue(ctx context.Context, now time.Time) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}

	due, err := s.storage.ListDueReminders(ctx, core.DateOf(now))
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	published := 0
	for _, rem := range due {
		err := s.publisher.Publish(ctx, amqp.KindReminderDue, amqp.ReminderDue{
			ReminderID: rem.ID,
			UserID:     rem.UserID,
			Title:      rem.Title,
			DueDate:    rem.DueDate.Format("2006-01-02"),
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder due event",
				"reminder_id", rem.ID, "error", err)
			continue
		}
		published++
	}

	if published > 0 {
		slog.InfoContext(ctx, "Published due reminders", "count", published)
	}
	return published, nil
}
