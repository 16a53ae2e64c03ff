package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps one JSON document per session in a single bucket.
type BoltStore struct {
	db        *bolt.DB
	bucket    []byte
	retention time.Duration
	now       func() time.Time
}

func NewBoltStore(path, bucket string, retention time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return &BoltStore{
		db:        db,
		bucket:    []byte(bucket),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *BoltStore) Load(_ context.Context, sessionID string) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(sessionID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return Record{}, err
	}
	// Expired records wait for the retention sweep but are already gone for readers.
	if rec.Expired(s.now()) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *BoltStore) Save(_ context.Context, rec Record) error {
	if rec.SessionID == "" {
		return errEmptySessionID
	}
	stamp(&rec, s.now(), s.retention)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(rec.SessionID), data)
	})
}

func (s *BoltStore) Recent(_ context.Context, limit int) ([]Record, error) {
	now := s.now()
	recs, err := s.scan(func(r Record) bool { return !r.Expired(now) })
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UpdatedAt.After(recs[j].UpdatedAt) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *BoltStore) Since(_ context.Context, t time.Time) ([]Record, error) {
	now := s.now()
	return s.scan(func(r Record) bool { return !r.Expired(now) && !r.UpdatedAt.Before(t) })
}

func (s *BoltStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				// Skip malformed entries instead of failing the sweep
				return nil
			}
			if rec.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired conversations: %w", err)
	}
	return deleted, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) scan(keep func(Record) bool) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			if keep(rec) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversations: %w", err)
	}
	return out, nil
}
