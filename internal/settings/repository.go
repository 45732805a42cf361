package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/store"
)

// Repository loads and saves the configuration under StorageKey.
type Repository struct {
	kv  store.KV
	log logrus.FieldLogger
}

// NewRepository creates a repository over kv.
func NewRepository(kv store.KV, log logrus.FieldLogger) *Repository {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Repository{kv: kv, log: log.WithField("component", "settings")}
}

// Load returns the persisted configuration merged over Default.
// Unreadable or malformed persisted data yields Default; only a backend
// read failure is returned as an error.
func (r *Repository) Load(ctx context.Context) (Settings, error) {
	data, ok, err := r.kv.Get(ctx, StorageKey)
	if err != nil {
		return Default(), fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return Default(), nil
	}

	res, err := Merge(data)
	if err != nil {
		r.log.WithError(err).Warn("persisted settings unreadable, using defaults")
		return Default(), nil
	}
	for field, reason := range res.Rejected {
		r.log.WithFields(logrus.Fields{"field": field, "reason": reason}).Warn("persisted setting rejected")
	}
	if len(res.Unknown) > 0 {
		r.log.WithField("keys", res.Unknown).Debug("ignoring unknown settings keys")
	}
	return res.Settings, nil
}

// Save validates s and writes it durably.
func (r *Repository) Save(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.kv.Put(ctx, StorageKey, data); err != nil {
		return chart.NewStorageError("settings.save", err)
	}
	return nil
}
