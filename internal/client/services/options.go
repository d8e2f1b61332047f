package services

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
	"github.com/dmitrijs2005/otpkeeper/internal/logging"
	"github.com/google/uuid"
)

// MergePolicy decides what Merge does when the incoming sync_id already
// exists locally.
type MergePolicy string

const (
	// MergeByArrival overwrites the local row with whatever arrives last.
	MergeByArrival MergePolicy = "arrival"
	// MergeNewer keeps the local row when its updated_at is strictly later
	// than the incoming one.
	MergeNewer MergePolicy = "newer"
)

// ParseMergePolicy maps a config value to a MergePolicy. Empty means
// MergeByArrival.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case "", MergeByArrival:
		return MergeByArrival, nil
	case MergeNewer:
		return MergeNewer, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

type options struct {
	now    func() time.Time
	newID  func() string
	log    logging.Logger
	policy MergePolicy
}

type Option func(*options)

// WithClock overrides the time source used for timestamps and codes.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides how sync ids and device ids are produced.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithMergePolicy(p MergePolicy) Option {
	return func(o *options) { o.policy = p }
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  uuid.NewString,
		log:    logging.Discard(),
		policy: MergeByArrival,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) timestamp() string {
	return models.FormatTime(o.now())
}
