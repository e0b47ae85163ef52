package mq

import (
	"context"
	"encoding/json"
	"time"
)

// Channel names for media-consistency events. Writes against the media
// store and the database are not transactional; whenever the two can
// diverge the incident is published here so the reconcile worker (or an
// operator) can act on it instead of it staying a silent log line.
const (
	// ChannelMediaOrphaned carries assets that exist in the media store
	// but are no longer referenced by any campground row.
	ChannelMediaOrphaned = "media.orphaned"

	// ChannelCascadeFailed carries campground deletions whose child
	// cleanup (comments or reviews) partially failed.
	ChannelCascadeFailed = "campground.cascade-failed"
)

// MediaOrphanedEvent describes a remote asset with no owning record.
type MediaOrphanedEvent struct {
	PublicID   string    `json:"public_id"`
	URL        string    `json:"url,omitempty"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CascadeFailedEvent describes a campground delete whose child-record
// cleanup did not fully complete. The listed ids are safe to re-delete;
// the batch deletes are idempotent.
type CascadeFailedEvent struct {
	CampgroundID int       `json:"campground_id"`
	CommentIDs   []int     `json:"comment_ids,omitempty"`
	ReviewIDs    []int     `json:"review_ids,omitempty"`
	Reason       string    `json:"reason"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PublishMediaOrphaned publishes an orphaned-asset event as JSON.
func (m *MQ) PublishMediaOrphaned(ctx context.Context, event MediaOrphanedEvent) (string, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return m.Publish(ctx, ChannelMediaOrphaned, data, map[string]string{"event": "media.orphaned"})
}

// PublishCascadeFailed publishes a partial-cascade event as JSON.
func (m *MQ) PublishCascadeFailed(ctx context.Context, event CascadeFailedEvent) (string, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return m.Publish(ctx, ChannelCascadeFailed, data, map[string]string{"event": "campground.cascade-failed"})
}
