package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/resched/internal/todoist"
)

// CommentAPI is the subset of the Todoist client the store needs.
type CommentAPI interface {
	GetComments(ctx context.Context, taskID string) ([]todoist.Comment, error)
	AddComment(ctx context.Context, taskID, content string) (*todoist.Comment, error)
	UpdateComment(ctx context.Context, commentID, content string) error
}

// Logger is the logging interface the store reports through.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// lookupState classifies the outcome of locating a task's metadata comment.
type lookupState int

const (
	lookupFound   lookupState = iota // metadata comment exists and decodes
	lookupAbsent                     // no metadata comment on the task
	lookupCorrupt                    // metadata comment exists but does not decode
)

// Store reads and writes per-task metadata records persisted as task
// comments. Every read outcome other than a clean decode maps to a fresh
// default record, so callers always get a usable snapshot.
type Store struct {
	api   CommentAPI
	log   Logger
	clock func() time.Time
}

// NewStore creates a metadata store over the given comment API.
func NewStore(api CommentAPI, log Logger) *Store {
	return &Store{
		api:   api,
		log:   log,
		clock: time.Now,
	}
}

// SetClock overrides the store's time source. Used by tests.
func (s *Store) SetClock(clock func() time.Time) {
	s.clock = clock
}

// lookup locates the task's metadata comment and decodes it. Comment
// enumeration failures are treated as "no metadata comment found" so a
// transient API error never blocks a batch.
func (s *Store) lookup(ctx context.Context, taskID string) (lookupState, *todoist.Comment, Record) {
	comments, err := s.api.GetComments(ctx, taskID)
	if err != nil {
		s.log.LogWarn(fmt.Sprintf("Failed to list comments for task %s, assuming no metadata: %v", taskID, err))
		return lookupAbsent, nil, Record{}
	}

	for i := range comments {
		if !IsMetadataComment(comments[i].Content) {
			continue
		}
		rec, ok := Decode(comments[i].Content)
		if !ok {
			s.log.LogDebug(fmt.Sprintf("Metadata comment %s on task %s is malformed, using defaults", comments[i].ID, taskID))
			return lookupCorrupt, &comments[i], Record{}
		}
		return lookupFound, &comments[i], rec
	}

	return lookupAbsent, nil, Record{}
}

// Get returns the task's stored metadata record, or a fresh default record
// if none exists or the stored encoding is unparsable. Get never fails.
func (s *Store) Get(ctx context.Context, taskID string) Record {
	state, _, rec := s.lookup(ctx, taskID)
	if state != lookupFound {
		return NewRecord(s.clock())
	}
	return rec
}

// Merge loads the task's current record, overwrites it field-by-field with
// the update, and persists the result: the existing metadata comment is
// updated in place, or a new one is created if the task has none. The merged
// snapshot is returned even when persisting fails, so callers can keep
// working with the intended state.
func (s *Store) Merge(ctx context.Context, taskID string, u Update) (Record, error) {
	state, comment, rec := s.lookup(ctx, taskID)
	if state != lookupFound {
		rec = NewRecord(s.clock())
	}

	merged := rec.Apply(u)

	content, err := Encode(merged)
	if err != nil {
		return merged, fmt.Errorf("encode metadata for task %s: %w", taskID, err)
	}

	// A corrupt comment is still the task's single metadata slot: overwrite
	// it rather than adding a second marker comment.
	if comment != nil {
		if err := s.api.UpdateComment(ctx, comment.ID, content); err != nil {
			return merged, fmt.Errorf("update metadata comment for task %s: %w", taskID, err)
		}
		return merged, nil
	}

	if _, err := s.api.AddComment(ctx, taskID, content); err != nil {
		return merged, fmt.Errorf("create metadata comment for task %s: %w", taskID, err)
	}
	return merged, nil
}
