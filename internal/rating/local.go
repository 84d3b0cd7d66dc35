package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrInvalidFingerprint rejects local review keys that were not derived from
// an event's title and date.
var ErrInvalidFingerprint = errors.New("invalid event fingerprint")

// ErrCorruptEntry reports a stored review list that no longer decodes.  The
// entry is left in place so it can be repaired by hand.
var ErrCorruptEntry = errors.New("corrupt local review entry")

// KV is the persistence the local mirror writes through.  Get returns
// (nil, nil) for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// LocalStore keeps review lists for fingerprint-keyed events.  Each call is a
// plain read-modify-write of one key; concurrent writers to the same key can
// lose updates.
type LocalStore struct {
	kv     KV
	prefix string
	now    func() time.Time
}

// NewLocalStore wraps kv.  Keys are namespaced with prefix.
func NewLocalStore(kv KV, prefix string) *LocalStore {
	if prefix == "" {
		prefix = "local_reviews"
	}
	return &LocalStore{kv: kv, prefix: prefix, now: time.Now}
}

func (l *LocalStore) key(fp string) string { return l.prefix + ":" + fp }

// List returns the reviews stored under fp; an unknown key is an empty list.
func (l *LocalStore) List(ctx context.Context, fp string) ([]Review, Summary, error) {
	reviews, err := l.load(ctx, fp)
	if err != nil {
		return nil, Summary{}, err
	}
	return reviews, Summarize(reviews), nil
}

// Add appends a review under fp without any duplicate check.  An empty name
// is shown as "You", matching how anonymous local reviews are labelled.
func (l *LocalStore) Add(ctx context.Context, fp, name string, score int, comment string) (Review, Summary, error) {
	if !strings.HasPrefix(fp, "client_") || len(fp) <= len("client_") {
		return Review{}, Summary{}, ErrInvalidFingerprint
	}
	reviews, err := l.load(ctx, fp)
	if err != nil {
		return Review{}, Summary{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = "You"
	}
	r := Review{
		RaterName: name,
		Score:     Clamp(score),
		Comment:   strings.TrimSpace(comment),
		CreatedAt: l.now().UTC(),
	}
	reviews = append(reviews, r)
	raw, err := json.Marshal(reviews)
	if err != nil {
		return Review{}, Summary{}, err
	}
	if err := l.kv.Set(ctx, l.key(fp), raw); err != nil {
		return Review{}, Summary{}, err
	}
	return r, Summarize(reviews), nil
}

func (l *LocalStore) load(ctx context.Context, fp string) ([]Review, error) {
	raw, err := l.kv.Get(ctx, l.key(fp))
	if err != nil {
		return nil, err
	}
	reviews := []Review{}
	if len(raw) == 0 {
		return reviews, nil
	}
	if err := json.Unmarshal(raw, &reviews); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorruptEntry, l.key(fp), err)
	}
	return reviews, nil
}

// MemoryKV is a process-local KV used when Redis is not configured.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV { return &MemoryKV{data: map[string][]byte{}} }

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}
