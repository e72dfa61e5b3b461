package db

import (
	"context"
	"slices"

	"github.com/pkg/errors"
)

// Subscribe adds userID to category. Joining twice is a constraint error.
func (s *Store) Subscribe(ctx context.Context, userID, category string) error {
	id, err := s.categoryID(ctx, category)
	if err != nil {
		return err
	}

	query := s.db.Rebind(`INSERT INTO subscription_users ("subscriptionId", "userId", ts) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, id, userID, s.now()); err != nil {
		err = classify(err)
		s.log.Error().Err(err).Str("user", userID).Str("category", category).Msg("subscribing user")
		return errors.Wrapf(err, "subscribing %s to %q", userID, category)
	}

	s.log.Debug().Str("user", userID).Str("category", category).Msg("user subscribed")
	return nil
}

// Unsubscribe removes userID from category. Not being a member is fine.
func (s *Store) Unsubscribe(ctx context.Context, userID, category string) error {
	id, err := s.categoryID(ctx, category)
	if err != nil {
		return err
	}

	query := s.db.Rebind(`DELETE FROM subscription_users WHERE "subscriptionId" = ? AND "userId" = ?`)
	if _, err := s.db.ExecContext(ctx, query, id, userID); err != nil {
		s.log.Error().Err(err).Str("user", userID).Str("category", category).Msg("unsubscribing user")
		return errors.Wrapf(err, "unsubscribing %s from %q", userID, category)
	}

	s.log.Debug().Str("user", userID).Str("category", category).Msg("user unsubscribed")
	return nil
}

func (s *Store) IsSubscribed(ctx context.Context, userID, category string) (bool, error) {
	categories, err := s.GetSubscribed(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(categories, category), nil
}

// GetSubscribed returns the categories userID belongs to, in no particular order.
func (s *Store) GetSubscribed(ctx context.Context, userID string) ([]string, error) {
	query := s.db.Rebind(`
		SELECT subscriptions.category
		FROM subscription_users
		JOIN subscriptions ON subscriptions.id = subscription_users."subscriptionId"
		WHERE subscription_users."userId" = ?
	`)
	categories := []string{}
	if err := s.db.SelectContext(ctx, &categories, query, userID); err != nil {
		s.log.Error().Err(err).Str("user", userID).Msg("getting subscribed categories")
		return nil, errors.Wrapf(err, "getting categories of %s", userID)
	}
	return categories, nil
}

// Subscribers returns the members of category, oldest first.
func (s *Store) Subscribers(ctx context.Context, category string) ([]string, error) {
	id, err := s.categoryID(ctx, category)
	if err != nil {
		return nil, err
	}

	query := s.db.Rebind(`SELECT "userId" FROM subscription_users WHERE "subscriptionId" = ? ORDER BY ts`)
	users := []string{}
	if err := s.db.SelectContext(ctx, &users, query, id); err != nil {
		s.log.Error().Err(err).Str("category", category).Msg("listing subscribers")
		return nil, errors.Wrapf(err, "listing subscribers of %q", category)
	}
	return users, nil
}
