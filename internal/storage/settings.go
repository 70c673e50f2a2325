package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SantaCall/internal/domain"
)

// GetRaw returns the stored value for (client, key), or false if absent.
func (d *DB) GetRaw(client, key string) (string, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var v string
	err := d.db.QueryRow(`SELECT value FROM settings WHERE client = ? AND key = ?`, client, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// PutRaw stores or replaces the value for (client, key).
func (d *DB) PutRaw(client, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.Exec(`
		INSERT INTO settings (client, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(client, key) DO UPDATE SET
			value      = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		client, key, value,
	)
	return err
}

// LoadAudioSettings never fails: a missing row, a read error or a value that
// does not parse all yield the defaults.
func (d *DB) LoadAudioSettings(client string) domain.AudioSettings {
	raw, ok, err := d.GetRaw(client, domain.AudioSettingsKey)
	if err != nil {
		log.Warn().Str("module", "storage").Str("client", client).Err(err).Msg("read audio settings")
		return domain.DefaultAudioSettings()
	}
	if !ok {
		return domain.DefaultAudioSettings()
	}
	s, ok := domain.ParseAudioSettings([]byte(raw))
	if !ok {
		log.Warn().Str("module", "storage").Str("client", client).Msg("stored audio settings unreadable, using defaults")
	}
	return s
}

func (d *DB) SaveAudioSettings(client string, s domain.AudioSettings) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode audio settings: %w", err)
	}
	if err := d.PutRaw(client, domain.AudioSettingsKey, string(b)); err != nil {
		return fmt.Errorf("save audio settings: %w", err)
	}
	return nil
}

// ClientSettings binds the store to one client so it can be handed to a
// call controller as its settings source.
type ClientSettings struct {
	db     *DB
	client string
}

func (d *DB) For(client string) ClientSettings {
	return ClientSettings{db: d, client: client}
}

func (c ClientSettings) AudioSettings() domain.AudioSettings {
	return c.db.LoadAudioSettings(c.client)
}
