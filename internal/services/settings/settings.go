// Package services реализует хранилище настроек приложения: цены тарифов,
// реквизиты компании и ключи платёжного шлюза. Значения читаются из базы
// при каждом обращении, отсутствующие ключи заменяются значениями по умолчанию.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// SettingsRepository определяет методы хранения настроек.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
	SeedSettings(ctx context.Context, defaults map[string]string) error
}

// SettingsService бизнес-логика настроек.
type SettingsService struct {
	repo SettingsRepository
	log  *slog.Logger
}

// NewSettingsService создает новый экземпляр SettingsService.
func NewSettingsService(repo SettingsRepository, log *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log}
}

// Get возвращает значение настройки или def, если ключа нет.
func (s *SettingsService) Get(ctx context.Context, key, def string) (string, error) {
	const op = "services.SettingsService.Get"
	v, ok, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Int возвращает целочисленную настройку. Если ключа нет, используется значение
// по умолчанию из models.DefaultSettings, а при его отсутствии def.
func (s *SettingsService) Int(ctx context.Context, key string, def int64) (int64, error) {
	const op = "services.SettingsService.Int"
	fallback := strconv.FormatInt(def, 10)
	if d, ok := models.DefaultSettings[key]; ok && d != "" {
		fallback = d
	}
	raw, err := s.Get(ctx, key, fallback)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %s=%q: %w", op, key, raw, models.ErrInvalidSetting)
	}
	return v, nil
}

// Set сохраняет значение настройки без проверки.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	const op = "services.SettingsService.Set"
	if err := s.repo.SetSetting(ctx, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Update сохраняет несколько настроек. Цены тарифов должны быть неотрицательными целыми.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	const op = "services.SettingsService.Update"
	for key, value := range values {
		if key == models.SettingMonthlyPrice || key == models.SettingQuarterlyPrice {
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil || v < 0 {
				return fmt.Errorf("%s: %s=%q: %w", op, key, value, models.ErrInvalidSetting)
			}
		}
	}
	for key, value := range values {
		if err := s.repo.SetSetting(ctx, key, value); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	s.log.Info("settings updated", slog.Int("count", len(values)))
	return nil
}

// All возвращает все настройки, дополненные значениями по умолчанию.
// Секрет платёжного шлюза не возвращается.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	const op = "services.SettingsService.All"
	stored, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := make(map[string]string, len(models.DefaultSettings))
	for k, v := range models.DefaultSettings {
		res[k] = v
	}
	for k, v := range stored {
		res[k] = v
	}
	delete(res, models.SettingRazorpayKeySecret)
	return res, nil
}

// SeedDefaults записывает значения по умолчанию для отсутствующих ключей.
func (s *SettingsService) SeedDefaults(ctx context.Context) error {
	const op = "services.SettingsService.SeedDefaults"
	if err := s.repo.SeedSettings(ctx, models.DefaultSettings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Company возвращает реквизиты компании для счёта.
func (s *SettingsService) Company(ctx context.Context) (models.Company, error) {
	const op = "services.SettingsService.Company"
	all, err := s.All(ctx)
	if err != nil {
		return models.Company{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.Company{
		Name:      all[models.SettingCompanyName],
		Address:   all[models.SettingCompanyAddress],
		Phone:     all[models.SettingCompanyPhone],
		Email:     all[models.SettingCompanyEmail],
		GSTNumber: all[models.SettingGSTNumber],
	}, nil
}
