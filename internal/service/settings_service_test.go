package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
)

type mockSettingRepo struct {
	values map[string]string
}

func (m *mockSettingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSettingRepo) Set(ctx context.Context, key, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func TestRegistrationOpenDefaultsToTrue(t *testing.T) {
	svc := NewSettingsService(&mockSettingRepo{}, zap.NewNop())

	open, err := svc.IsRegistrationOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open, "missing flag must default to open")
}

func TestRegistrationOpenParsesFlag(t *testing.T) {
	cases := map[string]bool{"1": true, "0": false, "yes": false, "": false}
	for value, want := range cases {
		repo := &mockSettingRepo{values: map[string]string{models.SettingRegistrationOpen: value}}
		svc := NewSettingsService(repo, zap.NewNop())

		open, err := svc.IsRegistrationOpen(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, open, "value %q", value)
	}
}

func TestSetRegistrationOpenRoundTrip(t *testing.T) {
	repo := &mockSettingRepo{}
	svc := NewSettingsService(repo, zap.NewNop())

	require.NoError(t, svc.SetRegistrationOpen(context.Background(), false))
	assert.Equal(t, "0", repo.values[models.SettingRegistrationOpen])

	require.NoError(t, svc.SetRegistrationOpen(context.Background(), true))
	assert.Equal(t, "1", repo.values[models.SettingRegistrationOpen])
}
