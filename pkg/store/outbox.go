package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/pismo/pkg/container"
)

// OutboxDir is the outbox location inside the data directory.
const OutboxDir = "outbox"

// Sent records one delivered letter.
type Sent struct {
	ID     string             `json:"id"`
	Letter container.Identity `json:"letter"`
	Topic  string             `json:"topic"`
	To     []string           `json:"to"`
	SentAt time.Time          `json:"sent_at"`
}

// Outbox archives deliveries. Implementations are safe for concurrent use.
type Outbox interface {
	// Record stores s, assigning an ID and a send time when missing.
	Record(ctx context.Context, s Sent) (Sent, error)
	// List returns the deliveries of a letter, or all of them when letter is
	// empty, oldest first.
	List(ctx context.Context, letter container.Identity) ([]Sent, error)
}

// OpenOutbox returns an outbox backed by diskv under base/outbox.
func OpenOutbox(base string) (Outbox, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("store: base path unknown")
	}
	dir := filepath.Join(base, OutboxDir)
	return &outbox{d: diskv.New(diskv.Options{
		BasePath:          dir,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}, nil
}

type outbox struct {
	d *diskv.Diskv
}

func (o *outbox) Record(ctx context.Context, s Sent) (Sent, error) {
	if err := ctx.Err(); err != nil {
		return Sent{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SentAt.IsZero() {
		s.SentAt = time.Now()
	}
	s.SentAt = s.SentAt.UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return Sent{}, fmt.Errorf("store: encode outbox record: %w", err)
	}
	if err := o.d.Write(toKey(s), data); err != nil {
		return Sent{}, fmt.Errorf("store: write outbox record: %w", err)
	}
	return s, nil
}

func (o *outbox) List(ctx context.Context, letter container.Identity) ([]Sent, error) {
	folder := ""
	if letter != "" {
		folder = toFolder(letter)
	}
	all := make([]Sent, 0)
	for key := range o.d.Keys(ctx.Done()) {
		if pk := keyToPathTransform(key); folder != "" && pk.Path[0] != folder {
			continue
		}
		val, err := o.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("store: read outbox record %s: %w", key, err)
		}
		var s Sent
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, fmt.Errorf("store: decode outbox record %s: %w", key, err)
		}
		all = append(all, s)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sortSent(all)
	return all, nil
}

func sortSent(all []Sent) {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].SentAt.Equal(all[j].SentAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].SentAt.Before(all[j].SentAt)
	})
}

const layoutKey = "20060102T150405.000000000Z"

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `letter-senttime-id`
func toKey(s Sent) string {
	id := strings.ReplaceAll(s.ID, "-", "")
	return fmt.Sprintf("%s-%s-%s", toFolder(s.Letter), s.SentAt.UTC().Format(layoutKey), id)
}

// toFolder encodes a letter identity into a path segment free of separators.
func toFolder(s string) string {
	if s == "" {
		return "_"
	}
	return hex.EncodeToString([]byte(s))
}
