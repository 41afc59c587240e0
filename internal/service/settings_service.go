package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
)

type settingRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SettingsService reads and writes process-wide flags. The registration
// flag is read at the start of each registration transaction rather than
// held as a hidden global.
type SettingsService struct {
	repo   settingRepository
	logger *zap.Logger
}

// NewSettingsService constructs SettingsService.
func NewSettingsService(repo settingRepository, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, logger: logger}
}

// IsRegistrationOpen reports the global registration flag. A missing key
// defaults to open, matching historical behaviour.
func (s *SettingsService) IsRegistrationOpen(ctx context.Context) (bool, error) {
	value, found, err := s.repo.Get(ctx, models.SettingRegistrationOpen)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read registration flag")
	}
	if !found {
		return true, nil
	}
	return value == "1", nil
}

// SetRegistrationOpen flips the global registration flag.
func (s *SettingsService) SetRegistrationOpen(ctx context.Context, open bool) error {
	value := "0"
	if open {
		value = "1"
	}
	if err := s.repo.Set(ctx, models.SettingRegistrationOpen, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration flag")
	}
	s.logger.Info("registration flag updated", zap.Bool("open", open))
	return nil
}
