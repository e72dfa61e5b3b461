package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"botsub/internal/models"
)

const subscriptionColumns = `subscriptions.id, subscriptions.created_on, subscriptions.category,
	subscriptions.sub_keywords, subscriptions.unsub_keywords,
	subscriptions.sub_action, subscriptions.unsub_action,
	subscriptions.sub_action_type, subscriptions.unsub_action_type`

// subscriptionRow is the stored shape of a subscription, keywords still encoded.
type subscriptionRow struct {
	ID              int       `db:"id"`
	CreatedOn       time.Time `db:"created_on"`
	Category        string    `db:"category"`
	SubKeywords     string    `db:"sub_keywords"`
	UnsubKeywords   string    `db:"unsub_keywords"`
	SubAction       string    `db:"sub_action"`
	UnsubAction     string    `db:"unsub_action"`
	SubActionType   string    `db:"sub_action_type"`
	UnsubActionType string    `db:"unsub_action_type"`
	Count           int64     `db:"count"`
}

func (r subscriptionRow) decode() (models.Subscription, error) {
	sub, err := decodeKeywords(r.SubKeywords)
	if err != nil {
		return models.Subscription{}, errors.Wrapf(err, "subscription %d", r.ID)
	}
	unsub, err := decodeKeywords(r.UnsubKeywords)
	if err != nil {
		return models.Subscription{}, errors.Wrapf(err, "subscription %d", r.ID)
	}
	return models.Subscription{
		ID:              r.ID,
		CreatedOn:       r.CreatedOn,
		Category:        r.Category,
		SubKeywords:     sub,
		UnsubKeywords:   unsub,
		SubAction:       r.SubAction,
		UnsubAction:     r.UnsubAction,
		SubActionType:   r.SubActionType,
		UnsubActionType: r.UnsubActionType,
		Count:           r.Count,
	}, nil
}

// ListAll returns every subscription with its member count, including
// subscriptions nobody has joined yet.
func (s *Store) ListAll(ctx context.Context) ([]models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `, count(subscription_users."userId") AS count
		FROM subscriptions
		LEFT JOIN subscription_users ON subscription_users."subscriptionId" = subscriptions.id
		GROUP BY subscriptions.id
		ORDER BY subscriptions.id
	`
	var rows []subscriptionRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.log.Error().Err(err).Msg("listing subscriptions")
		return nil, errors.Wrap(err, "listing subscriptions")
	}

	subs := make([]models.Subscription, 0, len(rows))
	for _, row := range rows {
		sub, err := row.decode()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Create inserts a category with the default keywords and actions. A category
// that already exists is rejected by the unique index.
func (s *Store) Create(ctx context.Context, category string) (*models.Subscription, error) {
	if category == "" {
		return nil, &models.ValidationError{Violations: []string{"category must be a non-empty string"}}
	}

	upper := strings.ToUpper(category)
	sub := &models.Subscription{
		CreatedOn:       s.now(),
		Category:        category,
		SubKeywords:     []string{"SUBSCRIBE_" + upper},
		UnsubKeywords:   []string{"UNSUBSCRIBE_" + upper},
		SubAction:       "Successfully subscribed to " + category,
		UnsubAction:     "You are now unsubscribed from " + category,
		SubActionType:   models.ActionTypeText,
		UnsubActionType: models.ActionTypeText,
	}
	subKeywords, err := encodeKeywords(sub.SubKeywords)
	if err != nil {
		return nil, err
	}
	unsubKeywords, err := encodeKeywords(sub.UnsubKeywords)
	if err != nil {
		return nil, err
	}

	query := s.db.Rebind(`
		INSERT INTO subscriptions (created_on, category, sub_keywords, unsub_keywords,
			sub_action, sub_action_type, unsub_action, unsub_action_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err = s.db.QueryRowxContext(ctx, query,
		sub.CreatedOn, sub.Category, subKeywords, unsubKeywords,
		sub.SubAction, sub.SubActionType, sub.UnsubAction, sub.UnsubActionType,
	).Scan(&sub.ID)
	if err != nil {
		err = classify(err)
		s.log.Error().Err(err).Str("category", category).Msg("creating subscription")
		return nil, errors.Wrapf(err, "creating subscription %q", category)
	}

	s.log.Info().Int("id", sub.ID).Str("category", category).Msg("subscription created")
	return sub, nil
}

// Modify overwrites the seven editable fields of subscription id. Invalid
// options are rejected before touching the database; an unknown id is a no-op.
func (s *Store) Modify(ctx context.Context, id int, opts models.ModifyOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	subKeywords, err := encodeKeywords(*opts.SubKeywords)
	if err != nil {
		return err
	}
	unsubKeywords, err := encodeKeywords(*opts.UnsubKeywords)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Update("subscriptions").
		Set("category", *opts.Category).
		Set("sub_keywords", subKeywords).
		Set("unsub_keywords", unsubKeywords).
		Set("sub_action", *opts.SubAction).
		Set("sub_action_type", *opts.SubActionType).
		Set("unsub_action", *opts.UnsubAction).
		Set("unsub_action_type", *opts.UnsubActionType).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(s.dialect.placeholder()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building update query")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		err = classify(err)
		s.log.Error().Err(err).Int("id", id).Msg("modifying subscription")
		return errors.Wrapf(err, "modifying subscription %d", id)
	}
	return nil
}

// Delete removes subscription id together with its members.
func (s *Store) Delete(ctx context.Context, id int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning delete")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM subscription_users WHERE "subscriptionId" = ?`), id); err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("deleting subscription members")
		return errors.Wrapf(err, "deleting members of subscription %d", id)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM subscriptions WHERE id = ?`), id); err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("deleting subscription")
		return errors.Wrapf(err, "deleting subscription %d", id)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "committing delete of subscription %d", id)
	}

	s.log.Info().Int("id", id).Msg("subscription deleted")
	return nil
}

// FindByCategory returns the subscription for category, or models.ErrNotFound.
func (s *Store) FindByCategory(ctx context.Context, category string) (*models.Subscription, error) {
	var row subscriptionRow
	query := s.db.Rebind(`SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE category = ?`)
	if err := s.db.GetContext(ctx, &row, query, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(category)
		}
		s.log.Error().Err(err).Str("category", category).Msg("finding subscription")
		return nil, errors.Wrapf(err, "finding subscription %q", category)
	}
	sub, err := row.decode()
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) categoryID(ctx context.Context, category string) (int, error) {
	var id int
	err := s.db.GetContext(ctx, &id, s.db.Rebind(`SELECT id FROM subscriptions WHERE category = ?`), category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, notFound(category)
		}
		s.log.Error().Err(err).Str("category", category).Msg("looking up category")
		return 0, errors.Wrapf(err, "looking up category %q", category)
	}
	return id, nil
}

func notFound(category string) error {
	return errors.Wrapf(models.ErrNotFound, "could not find subscription of category: %s", category)
}
