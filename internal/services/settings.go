package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/store"
	"github.com/diewo77/go-rentals/validation"
)

// General configuration keys stored as general_config parameters.
const (
	KeyCurrency  = "currency"
	KeyDecimals  = "decimals"
	KeyVATRate   = "vat_rate"
	KeyStampDuty = "stamp_duty"
)

// Settings is the business configuration used by every calculation. It is an
// immutable value; obtain the current one from SettingsCache.
type Settings struct {
	Currency  string          `json:"currency"`
	Decimals  int32           `json:"decimals"`
	VATRate   decimal.Decimal `json:"vat_rate"`   // percent
	StampDuty decimal.Decimal `json:"stamp_duty"` // fixed amount per invoice
}

// DefaultSettings returns TND, 3 decimals, 19% VAT and a 1.000 stamp duty.
func DefaultSettings() Settings {
	return Settings{
		Currency:  "TND",
		Decimals:  3,
		VATRate:   decimal.NewFromInt(19),
		StampDuty: decimal.RequireFromString("1.000"),
	}
}

// Round rounds an amount to the configured precision.
func (s Settings) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(s.Decimals)
}

// Format renders an amount with the configured precision and currency.
func (s Settings) Format(amount decimal.Decimal) string {
	return amount.StringFixed(s.Decimals) + " " + s.Currency
}

// SettingsProvider returns the settings in effect.
type SettingsProvider interface {
	Get(ctx context.Context) (Settings, error)
}

// Static is a SettingsProvider that always returns the same value.
type Static Settings

func (s Static) Get(context.Context) (Settings, error) { return Settings(s), nil }

// SettingsPatch changes some general configuration keys.
type SettingsPatch struct {
	Currency  *string          `json:"currency"`
	Decimals  *int32           `json:"decimals"`
	VATRate   *decimal.Decimal `json:"vat_rate"`
	StampDuty *decimal.Decimal `json:"stamp_duty"`
}

// Validate checks ranges.
func (p SettingsPatch) Validate() error {
	v := validation.Violations{}
	if p.Currency != nil {
		validation.Required(KeyCurrency, *p.Currency, v)
	}
	if p.Decimals != nil && (*p.Decimals < 0 || *p.Decimals > 6) {
		v[KeyDecimals] = "out_of_range"
	}
	if p.VATRate != nil {
		validation.RangeDecimal(KeyVATRate, *p.VATRate, decimal.Zero, hundred, v)
	}
	if p.StampDuty != nil {
		validation.NonNegativeDecimal(KeyStampDuty, *p.StampDuty, v)
	}
	return v.Err()
}

func (p SettingsPatch) rows() map[string]string {
	out := map[string]string{}
	if p.Currency != nil {
		out[KeyCurrency] = *p.Currency
	}
	if p.Decimals != nil {
		out[KeyDecimals] = strconv.Itoa(int(*p.Decimals))
	}
	if p.VATRate != nil {
		out[KeyVATRate] = p.VATRate.String()
	}
	if p.StampDuty != nil {
		out[KeyStampDuty] = p.StampDuty.String()
	}
	return out
}

// SettingsCache loads the general_config rows once and serves them until
// Reload. It is created by the composition root and passed to the services.
type SettingsCache struct {
	params *store.Collection[models.Parameter]

	mu     sync.RWMutex
	loaded bool
	cur    Settings
}

// NewSettingsCache returns an empty cache over the parameters collection.
func NewSettingsCache(db *gorm.DB) *SettingsCache {
	return &SettingsCache{params: store.New[models.Parameter](db)}
}

// Get returns the cached settings, loading them on first use.
func (c *SettingsCache) Get(ctx context.Context) (Settings, error) {
	c.mu.RLock()
	if c.loaded {
		s := c.cur
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()
	return c.Reload(ctx)
}

// Reload reads the general_config rows again, replacing the cached value.
func (c *SettingsCache) Reload(ctx context.Context) (Settings, error) {
	rows, err := c.params.Query(ctx, store.Where(store.Eq("type", models.ParamGeneralConfig)))
	if err != nil {
		slog.Error("load general config", "error", err)
		return Settings{}, err
	}
	s := settingsFromRows(rows)
	c.mu.Lock()
	c.cur, c.loaded = s, true
	c.mu.Unlock()
	return s, nil
}

// Update writes the patched keys, creating missing rows, then reloads.
func (c *SettingsCache) Update(ctx context.Context, p SettingsPatch) (Settings, error) {
	if err := p.Validate(); err != nil {
		return Settings{}, err
	}
	rows, err := c.params.Query(ctx, store.Where(store.Eq("type", models.ParamGeneralConfig)))
	if err != nil {
		return Settings{}, err
	}
	byKey := make(map[string]models.Parameter, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r
	}
	for key, value := range p.rows() {
		if row, ok := byKey[key]; ok {
			err = c.params.Update(ctx, row.ID, map[string]any{"value": value})
		} else {
			_, err = c.params.Insert(ctx, &models.Parameter{
				Type: models.ParamGeneralConfig, Key: key, Label: key, Value: value, Active: true,
			})
		}
		if err != nil {
			slog.Error("update general config", "key", key, "error", err)
			return Settings{}, fmt.Errorf("update %s: %w", key, err)
		}
	}
	return c.Reload(ctx)
}

func settingsFromRows(rows []models.Parameter) Settings {
	s := DefaultSettings()
	for _, r := range rows {
		switch r.Key {
		case KeyCurrency:
			if r.Value != "" {
				s.Currency = r.Value
			}
		case KeyDecimals:
			if n, err := strconv.Atoi(r.Value); err == nil && n >= 0 {
				s.Decimals = int32(n)
			} else {
				slog.Warn("invalid general config value", "key", r.Key, "value", r.Value)
			}
		case KeyVATRate:
			if v, err := decimal.NewFromString(r.Value); err == nil {
				s.VATRate = v
			} else {
				slog.Warn("invalid general config value", "key", r.Key, "value", r.Value)
			}
		case KeyStampDuty:
			if v, err := decimal.NewFromString(r.Value); err == nil {
				s.StampDuty = v
			} else {
				slog.Warn("invalid general config value", "key", r.Key, "value", r.Value)
			}
		}
	}
	return s
}
