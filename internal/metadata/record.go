// Package metadata maintains resched's durable per-task state: cumulative
// failure and success counters plus the timestamps that drive backoff and
// completion dedup. Records are persisted as a single marked comment on the
// task itself, so the state travels with the task and needs no local storage.
package metadata

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Marker is the first line of a metadata comment. A task has at most one
// comment starting with this marker; it is the authoritative record.
const Marker = "# METADATA"

// Record is the per-task metadata snapshot. Timestamps are RFC 3339 strings:
// LastCompletion is compared verbatim against the completion timestamp the
// API reports, so it must round-trip without reformatting.
type Record struct {
	Failures       int    `yaml:"failures"`
	Successes      int    `yaml:"successes"`
	Created        string `yaml:"created"`
	LastFailed     string `yaml:"last_failed,omitempty"`
	LastCompletion string `yaml:"last_completion,omitempty"`
}

// NewRecord returns a fresh default record for a task with no stored
// metadata: zero counters, created now.
func NewRecord(now time.Time) Record {
	return Record{
		Failures:  0,
		Successes: 0,
		Created:   now.Format(time.RFC3339),
	}
}

// Update is a field-level overwrite set for a Record. Nil fields are left
// untouched.
type Update struct {
	Failures       *int
	Successes      *int
	LastFailed     *string
	LastCompletion *string
}

// Apply returns a new Record with the update's non-nil fields overwriting
// the receiver's. The receiver is not modified.
func (r Record) Apply(u Update) Record {
	out := r
	if u.Failures != nil {
		out.Failures = *u.Failures
	}
	if u.Successes != nil {
		out.Successes = *u.Successes
	}
	if u.LastFailed != nil {
		out.LastFailed = *u.LastFailed
	}
	if u.LastCompletion != nil {
		out.LastCompletion = *u.LastCompletion
	}
	return out
}

// Encode serializes a record as metadata comment content: the marker line
// followed by a yaml document.
func Encode(r Record) (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	return Marker + "\n" + string(data), nil
}

// Decode parses metadata comment content produced by Encode. It returns
// false if the content does not carry the marker or the yaml block is
// malformed.
func Decode(content string) (Record, bool) {
	rest, ok := strings.CutPrefix(content, Marker+"\n")
	if !ok {
		// Tolerate a marker with no trailing newline (empty record body).
		if content != Marker {
			return Record{}, false
		}
		rest = ""
	}

	var r Record
	if err := yaml.Unmarshal([]byte(rest), &r); err != nil {
		return Record{}, false
	}
	return r, true
}

// IsMetadataComment reports whether a comment holds a metadata record.
func IsMetadataComment(content string) bool {
	return strings.HasPrefix(content, Marker)
}
