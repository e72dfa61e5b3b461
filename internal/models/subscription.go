package models

import "time"

// ActionTypeText is the only action type the bundled front ends know how to render.
const ActionTypeText = "text"

// Subscription is a category users can subscribe to, together with the keyword
// triggers and confirmation actions the host uses for it.
type Subscription struct {
	ID              int       `json:"id"`
	CreatedOn       time.Time `json:"created_on"`
	Category        string    `json:"category"`
	SubKeywords     []string  `json:"sub_keywords"`
	UnsubKeywords   []string  `json:"unsub_keywords"`
	SubAction       string    `json:"sub_action"`
	UnsubAction     string    `json:"unsub_action"`
	SubActionType   string    `json:"sub_action_type"`
	UnsubActionType string    `json:"unsub_action_type"`
	// Count is the number of members; only filled in by listings.
	Count int64 `json:"count"`
}

// SubscriptionUser is a user's membership in a category.
type SubscriptionUser struct {
	SubscriptionID int       `db:"subscriptionId" json:"subscriptionId"`
	UserID         string    `db:"userId" json:"userId"`
	TS             time.Time `db:"ts" json:"ts"`
}
