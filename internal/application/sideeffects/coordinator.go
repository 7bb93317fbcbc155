package sideeffects

import (
	"context"
	"errors"
	"fmt"
	"sync"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const DefaultFirstBookingTag = "first_booking"

// Coordinator runs the follow-up actions of a booking. Every failure here is
// logged and swallowed: a confirmed booking stays confirmed.
type Coordinator struct {
	log             *zap.Logger
	notifications   ports.NotificationSink
	quests          ports.QuestStore
	firstBookingTag string

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
	roster    map[string]map[string]struct{}
}

func NewCoordinator(log *zap.Logger, notifications ports.NotificationSink, quests ports.QuestStore, firstBookingTag string) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if firstBookingTag == "" {
		firstBookingTag = DefaultFirstBookingTag
	}

	return &Coordinator{
		log:             log,
		notifications:   notifications,
		quests:          quests,
		firstBookingTag: firstBookingTag,
		userLocks:       make(map[string]*sync.Mutex),
		roster:          make(map[string]map[string]struct{}),
	}
}

// BookingFinished sends the confirmation notification and grants the first
// booking quest if the user does not hold it yet.
func (c *Coordinator) BookingFinished(ctx context.Context, userID, orderID string) {
	const op = "sideeffects.BookingFinished"
	tracer := otel.Tracer("fan-stay/sideeffects")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("booking.order_id", orderID))

	logger := c.log.With(zap.String("op", op), zap.String("user_id", userID), zap.String("order_id", orderID))

	c.notify(ctx, logger, models.Notification{
		UserID:  userID,
		Kind:    models.NotificationBookingConfirmed,
		OrderID: orderID,
		Content: fmt.Sprintf("Your booking %s is confirmed.", orderID),
	})

	if err := c.grantFirstBooking(ctx, userID); err != nil {
		logger.Warn("first booking quest not granted", zap.Error(err))
		span.RecordError(err)
	}
}

func (c *Coordinator) BookingCancelled(ctx context.Context, userID, orderID string) {
	const op = "sideeffects.BookingCancelled"
	logger := c.log.With(zap.String("op", op), zap.String("user_id", userID), zap.String("order_id", orderID))

	c.notify(ctx, logger, models.Notification{
		UserID:  userID,
		Kind:    models.NotificationBookingCancelled,
		OrderID: orderID,
		Content: fmt.Sprintf("Your booking %s has been cancelled.", orderID),
	})
}

// RecordQuest marks a quest as held by the user in the local roster. Flows
// that complete quests elsewhere call it to keep the roster warm.
func (c *Coordinator) RecordQuest(userID, questID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roster[userID] == nil {
		c.roster[userID] = make(map[string]struct{})
	}
	c.roster[userID][questID] = struct{}{}
}

func (c *Coordinator) notify(ctx context.Context, logger *zap.Logger, n models.Notification) {
	if c.notifications == nil {
		return
	}
	if err := c.notifications.CreateNotification(ctx, n); err != nil {
		logger.Warn("failed to create notification", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}

func (c *Coordinator) grantFirstBooking(ctx context.Context, userID string) error {
	if c.quests == nil {
		return nil
	}

	quest, err := c.quests.FindQuestByTag(ctx, c.firstBookingTag)
	if err != nil {
		if errors.Is(err, derr.ErrQuestNotFound) {
			c.log.Debug("first booking quest is not configured", zap.String("tag", c.firstBookingTag))
			return nil
		}
		return fmt.Errorf("find quest %q: %w", c.firstBookingTag, err)
	}

	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if c.holdsLocally(userID, quest.ID) {
		return nil
	}

	held, err := c.quests.FetchUserQuests(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch user quests: %w", err)
	}
	for _, uq := range held {
		c.RecordQuest(userID, uq.QuestID)
	}
	if c.holdsLocally(userID, quest.ID) {
		return nil
	}

	if err := c.quests.GrantQuest(ctx, userID, quest.ID); err != nil {
		return fmt.Errorf("grant quest %s: %w", quest.ID, err)
	}
	c.RecordQuest(userID, quest.ID)
	c.log.Info("first booking quest granted", zap.String("user_id", userID), zap.String("quest_id", quest.ID))
	return nil
}

func (c *Coordinator) holdsLocally(userID, questID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.roster[userID][questID]
	return ok
}

func (c *Coordinator) userLock(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		c.userLocks[userID] = l
	}
	return l
}
