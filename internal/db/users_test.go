package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botsub/internal/models"
)

func TestSubscribeStatements(t *testing.T) {
	t.Run("inserts membership", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id FROM subscriptions WHERE category = \$1`).WithArgs("weather").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO subscription_users \("subscriptionId", "userId", ts\)`).
			WithArgs(1, "u1", fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Subscribe(context.Background(), "u1", "weather"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown category", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id FROM subscriptions`).WithArgs("news").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := store.Subscribe(context.Background(), "u1", "news")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.EqualError(t, err, "could not find subscription of category: news: requested item not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already a member", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id FROM subscriptions`).WithArgs("weather").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO subscription_users`).
			WillReturnError(&pq.Error{Code: pgerrcode.UniqueViolation, Constraint: "subscription_users_pkey"})

		assert.ErrorIs(t, store.Subscribe(context.Background(), "u1", "weather"), models.ErrConflict)
	})
}

func TestUnsubscribeStatements(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id FROM subscriptions`).WithArgs("weather").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM subscription_users WHERE "subscriptionId" = \$1 AND "userId" = \$2`).
		WithArgs(1, "u1").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Unsubscribe(context.Background(), "u1", "weather"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscribedStatements(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT subscriptions.category\s+FROM subscription_users\s+JOIN subscriptions`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("weather").AddRow("news"))
	mock.ExpectQuery(`SELECT subscriptions.category`).WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"category"}))

	categories, err := store.GetSubscribed(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"weather", "news"}, categories)

	categories, err = store.GetSubscribed(context.Background(), "u2")
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The tests below run against a real in-memory SQLite database.

func TestSQLiteBootstrapKeepsData(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	_, err := store.Create(ctx, "weather")
	require.NoError(t, err)

	require.NoError(t, store.Bootstrap(ctx))

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSQLiteCreateThenList(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	created, err := store.Create(ctx, "weather")
	require.NoError(t, err)

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	sub := subs[0]
	assert.Equal(t, created.ID, sub.ID)
	assert.Equal(t, "weather", sub.Category)
	assert.Equal(t, int64(0), sub.Count)
	assert.Equal(t, []string{"SUBSCRIBE_WEATHER"}, sub.SubKeywords)
	assert.Equal(t, []string{"UNSUBSCRIBE_WEATHER"}, sub.UnsubKeywords)
	assert.Equal(t, "Successfully subscribed to weather", sub.SubAction)
	assert.Equal(t, "You are now unsubscribed from weather", sub.UnsubAction)
	assert.Equal(t, models.ActionTypeText, sub.SubActionType)
	assert.Equal(t, models.ActionTypeText, sub.UnsubActionType)
}

func TestSQLiteCreateTwice(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	_, err := store.Create(ctx, "weather")
	require.NoError(t, err)
	_, err = store.Create(ctx, "weather")
	assert.ErrorIs(t, err, models.ErrConflict)

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSQLiteMembership(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	_, err := store.Create(ctx, "weather")
	require.NoError(t, err)

	require.NoError(t, store.Subscribe(ctx, "u1", "weather"))

	categories, err := store.GetSubscribed(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"weather"}, categories)

	ok, err := store.IsSubscribed(ctx, "u1", "weather")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.IsSubscribed(ctx, "u1", "news")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, store.Subscribe(ctx, "u1", "weather"), models.ErrConflict)

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), subs[0].Count)

	require.NoError(t, store.Unsubscribe(ctx, "u1", "weather"))
	categories, err = store.GetSubscribed(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, categories)

	assert.NoError(t, store.Unsubscribe(ctx, "u1", "weather"))
	assert.ErrorIs(t, store.Unsubscribe(ctx, "u1", "news"), models.ErrNotFound)
}

func TestSQLiteDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	weather, err := store.Create(ctx, "weather")
	require.NoError(t, err)
	_, err = store.Create(ctx, "news")
	require.NoError(t, err)
	for _, category := range []string{"weather", "news"} {
		require.NoError(t, store.Subscribe(ctx, "u1", category))
	}
	require.NoError(t, store.Subscribe(ctx, "u2", "weather"))

	require.NoError(t, store.Delete(ctx, weather.ID))

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "news", subs[0].Category)
	assert.Equal(t, int64(1), subs[0].Count)

	categories, err := store.GetSubscribed(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, categories)

	assert.ErrorIs(t, store.Subscribe(ctx, "u1", "weather"), models.ErrNotFound)
}

func TestSQLiteModify(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	weather, err := store.Create(ctx, "weather")
	require.NoError(t, err)
	_, err = store.Create(ctx, "news")
	require.NoError(t, err)

	err = store.Modify(ctx, weather.ID, models.ModifyOptions{Category: strp("x")})
	assert.ErrorIs(t, err, models.ErrValidation)
	unchanged, err := store.FindByCategory(ctx, "weather")
	require.NoError(t, err)
	assert.Equal(t, weather.ID, unchanged.ID)

	require.NoError(t, store.Modify(ctx, weather.ID, fullOptions("forecast")))
	updated, err := store.FindByCategory(ctx, "forecast")
	require.NoError(t, err)
	assert.Equal(t, weather.ID, updated.ID)
	assert.Equal(t, []string{"START_forecast", "JOIN_forecast"}, updated.SubKeywords)
	assert.Equal(t, []string{"STOP_forecast"}, updated.UnsubKeywords)
	assert.Equal(t, "on", updated.SubAction)

	assert.ErrorIs(t, store.Modify(ctx, weather.ID, fullOptions("news")), models.ErrConflict)
	assert.NoError(t, store.Modify(ctx, 9999, fullOptions("elsewhere")))
	_, err = store.FindByCategory(ctx, "elsewhere")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLiteSubscribers(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	_, err := store.Create(ctx, "weather")
	require.NoError(t, err)

	users, err := store.Subscribers(ctx, "weather")
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, store.Subscribe(ctx, "telegram:1", "weather"))
	require.NoError(t, store.Subscribe(ctx, "telegram:2", "weather"))

	users, err = store.Subscribers(ctx, "weather")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"telegram:1", "telegram:2"}, users)

	_, err = store.Subscribers(ctx, "news")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
