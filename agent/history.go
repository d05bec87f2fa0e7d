package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var researchBucket = []byte("research")

// History persists completed research calls. Keys are timestamp-prefixed
// so a cursor walk returns them in execution order.
type History struct {
	db *bolt.DB
}

func OpenHistory(path string) (*History, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for history db: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(researchBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &History{db: db}, nil
}

func (h *History) Append(r *Research) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal research: %w", err)
	}

	key := []byte(r.Timestamp.UTC().Format(time.RFC3339Nano) + "_" + r.ID)
	return h.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(researchBucket).Put(key, data)
	})
}

// List returns all recorded research in execution order.
func (h *History) List() ([]Research, error) {
	var out []Research
	err := h.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(researchBucket).ForEach(func(_, v []byte) error {
			var r Research
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Export writes the full history as an indented JSON array, the portable
// form for sharing a research session.
func (h *History) Export(path string) error {
	records, err := h.List()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}
