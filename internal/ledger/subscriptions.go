package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/store"
)

// CreateSubscription persists a new subscription and returns its id. A zero
// NextRenewalDate defaults to the start date; new subscriptions are active.
func (s *Service) CreateSubscription(ctx context.Context, sub model.Subscription) (string, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return "", err
	}
	if sub.NextRenewalDate.IsZero() {
		sub.NextRenewalDate = sub.StartDate
	}
	if sub.Category == "" {
		sub.Category = model.CategoryAbbonamenti
	}
	if err := sub.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	sub.IsActive = true
	sub.EndDate = time.Time{}
	now := s.now()
	sub.CreatedAt = now
	sub.LastUpdated = now

	id, err := s.store.Create(ctx, userCol(uid, colSubscriptions), subscriptionData(sub))
	if err != nil {
		return "", fmt.Errorf("creating subscription: %w", err)
	}
	s.log.Info().Str("subscription", id).Str("name", sub.Name).Msg("subscription created")
	return id, nil
}

// Subscription returns one subscription by id.
func (s *Service) Subscription(ctx context.Context, id string) (model.Subscription, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return model.Subscription{}, err
	}
	doc, err := s.getSubscriptionDoc(ctx, uid, id)
	if err != nil {
		return model.Subscription{}, err
	}
	return subscriptionFromDoc(doc), nil
}

// Subscriptions lists subscriptions ordered by next renewal date. With
// activeOnly set, deactivated ones are excluded.
func (s *Service) Subscriptions(ctx context.Context, activeOnly bool) ([]model.Subscription, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	q := store.Query{OrderBy: "nextRenewalDate"}
	if activeOnly {
		q.Filters = append(q.Filters, store.Filter{Field: "isActive", Op: store.OpEqual, Value: true})
	}
	docs, err := s.store.Query(ctx, userCol(uid, colSubscriptions), q)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	subs := make([]model.Subscription, 0, len(docs))
	for _, doc := range docs {
		subs = append(subs, subscriptionFromDoc(doc))
	}
	return subs, nil
}

// UpdateSubscription applies a partial merge; nil patch fields keep their
// stored value.
func (s *Service) UpdateSubscription(ctx context.Context, id string, patch model.SubscriptionPatch) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return fmt.Errorf("%w: subscription name is required", ErrValidation)
		}
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return fmt.Errorf("%w: subscription amount must be positive, got %s", ErrValidation, patch.Amount)
		}
		fields["amount"] = patch.Amount.StringFixed(2)
	}
	if patch.Frequency != nil {
		if _, err := model.ParseFrequency(string(*patch.Frequency)); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		fields["frequency"] = string(*patch.Frequency)
	}
	if patch.Category != nil {
		fields["category"] = *patch.Category
	}
	if patch.Notes != nil {
		fields["notes"] = *patch.Notes
	}
	if len(fields) == 0 {
		return nil
	}
	fields["lastUpdated"] = s.now()
	return s.mergeSubscription(ctx, uid, id, fields)
}

// DeactivateSubscription soft-deletes: the record stays, IsActive drops and
// EndDate is stamped. Prior transactions referencing the subscription are
// untouched.
func (s *Service) DeactivateSubscription(ctx context.Context, id string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	err = s.mergeSubscription(ctx, uid, id, map[string]any{
		"isActive":    false,
		"endDate":     now,
		"lastUpdated": now,
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("subscription", id).Msg("subscription deactivated")
	return nil
}

// ReactivateSubscription restores a deactivated subscription and clears the
// end date.
func (s *Service) ReactivateSubscription(ctx context.Context, id string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	err = s.mergeSubscription(ctx, uid, id, map[string]any{
		"isActive":    true,
		"endDate":     time.Time{},
		"lastUpdated": s.now(),
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("subscription", id).Msg("subscription reactivated")
	return nil
}

// DeleteSubscription removes the record permanently. This is deliberately a
// separate operation from DeactivateSubscription.
func (s *Service) DeleteSubscription(ctx context.Context, id string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userCol(uid, colSubscriptions), id); err != nil {
		return fmt.Errorf("deleting subscription %s: %w", id, err)
	}
	s.log.Info().Str("subscription", id).Msg("subscription deleted")
	return nil
}

// UpdateNextRenewalDate persists a new renewal date. The date only advances
// forward; anything else is a validation failure.
func (s *Service) UpdateNextRenewalDate(ctx context.Context, id string, next time.Time) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	doc, err := s.getSubscriptionDoc(ctx, uid, id)
	if err != nil {
		return err
	}
	current := docTime(doc, "nextRenewalDate")
	if !next.After(current) {
		return fmt.Errorf("%w: next renewal date %s does not advance past %s",
			ErrValidation, next.Format("2006-01-02"), current.Format("2006-01-02"))
	}
	return s.mergeSubscription(ctx, uid, id, map[string]any{
		"nextRenewalDate": next,
		"lastUpdated":     s.now(),
	})
}

// ExpiringSubscriptions returns active subscriptions renewing within the
// next thresholdDays days, soonest first.
func (s *Service) ExpiringSubscriptions(ctx context.Context, thresholdDays int) ([]model.Subscription, error) {
	now := s.now()
	return s.activeInWindow(ctx, now, now.AddDate(0, 0, thresholdDays))
}

// DueSubscriptions returns active subscriptions whose renewal date has
// passed, oldest first. Feeds the renewal processor.
func (s *Service) DueSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	return s.activeInWindow(ctx, time.Time{}, s.now())
}

func (s *Service) activeInWindow(ctx context.Context, from, to time.Time) ([]model.Subscription, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	q := store.Query{
		Filters: []store.Filter{
			{Field: "isActive", Op: store.OpEqual, Value: true},
			{Field: "nextRenewalDate", Op: store.OpLessEqual, Value: to},
		},
		OrderBy: "nextRenewalDate",
	}
	if !from.IsZero() {
		q.Filters = append(q.Filters, store.Filter{Field: "nextRenewalDate", Op: store.OpGreaterEqual, Value: from})
	}
	docs, err := s.store.Query(ctx, userCol(uid, colSubscriptions), q)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions by renewal window: %w", err)
	}
	subs := make([]model.Subscription, 0, len(docs))
	for _, doc := range docs {
		subs = append(subs, subscriptionFromDoc(doc))
	}
	return subs, nil
}

func (s *Service) getSubscriptionDoc(ctx context.Context, uid, id string) (store.Doc, error) {
	doc, err := s.store.Get(ctx, userCol(uid, colSubscriptions), id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Doc{}, fmt.Errorf("%w: subscription %s", ErrNotFound, id)
	}
	if err != nil {
		return store.Doc{}, fmt.Errorf("getting subscription %s: %w", id, err)
	}
	return doc, nil
}

// mergeSubscription verifies existence before merging, since a bare merge
// would upsert on the remote store.
func (s *Service) mergeSubscription(ctx context.Context, uid, id string, fields map[string]any) error {
	col := userCol(uid, colSubscriptions)
	if _, err := s.store.Get(ctx, col, id); errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: subscription %s", ErrNotFound, id)
	} else if err != nil {
		return fmt.Errorf("getting subscription %s: %w", id, err)
	}
	if err := s.store.Merge(ctx, col, id, fields); err != nil {
		return fmt.Errorf("updating subscription %s: %w", id, err)
	}
	return nil
}

func subscriptionData(sub model.Subscription) map[string]any {
	return map[string]any{
		"accountId":       sub.AccountID,
		"name":            sub.Name,
		"description":     sub.Description,
		"amount":          sub.Amount.StringFixed(2),
		"frequency":       string(sub.Frequency),
		"category":        sub.Category,
		"startDate":       sub.StartDate,
		"nextRenewalDate": sub.NextRenewalDate,
		"endDate":         sub.EndDate,
		"isActive":        sub.IsActive,
		"notes":           sub.Notes,
		"createdAt":       sub.CreatedAt,
		"lastUpdated":     sub.LastUpdated,
	}
}

func subscriptionFromDoc(d store.Doc) model.Subscription {
	return model.Subscription{
		ID:              d.ID,
		AccountID:       docString(d, "accountId"),
		Name:            docString(d, "name"),
		Description:     docString(d, "description"),
		Amount:          docDecimal(d, "amount"),
		Frequency:       model.Frequency(docString(d, "frequency")),
		Category:        docString(d, "category"),
		StartDate:       docTime(d, "startDate"),
		NextRenewalDate: docTime(d, "nextRenewalDate"),
		EndDate:         docTime(d, "endDate"),
		IsActive:        docBool(d, "isActive"),
		Notes:           docString(d, "notes"),
		CreatedAt:       docTime(d, "createdAt"),
		LastUpdated:     docTime(d, "lastUpdated"),
	}
}
