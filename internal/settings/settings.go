// Package settings is the agent's key-value settings store, replacing the
// desktop shell's get/set bridge. Values are strings; printer settings get a
// typed wrapper because every register reads them before printing.
package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for keys that were never set.
var ErrNotFound = errors.New("setting not found")

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func settingKey(key string) string { return "settings:" + key }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, settingKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, settingKey(key), value, 0).Err()
}

// PrinterSettings mirrors what the receipt renderer and print flow need.
type PrinterSettings struct {
	PrinterName string `json:"printer_name"`
	PaperWidth  int    `json:"paper_width_mm"`
	Copies      int    `json:"copies"`
	FooterText  string `json:"footer_text"`
}

// DefaultPrinterSettings matches 80mm thermal paper, single copy.
func DefaultPrinterSettings() PrinterSettings {
	return PrinterSettings{PaperWidth: 80, Copies: 1}
}

const printerKey = "printer"

func (s *Store) GetPrinter(ctx context.Context) (PrinterSettings, error) {
	raw, err := s.Get(ctx, printerKey)
	if errors.Is(err, ErrNotFound) {
		return DefaultPrinterSettings(), nil
	}
	if err != nil {
		return PrinterSettings{}, err
	}
	var ps PrinterSettings
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		return PrinterSettings{}, err
	}
	return ps, nil
}

func (s *Store) SetPrinter(ctx context.Context, ps PrinterSettings) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return err
	}
	return s.Set(ctx, printerKey, string(data))
}
