package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SkiSchool-BookingService/internal/dialog"
)

func TestMemory_SetGet(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()

	session := dialog.NewSession(555)
	session.Step = dialog.StepChooseDate
	require.NoError(t, store.Set(ctx, session))

	got, err := store.Get(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, dialog.StepChooseDate, got.Step)

	// Хранилище отдает копию: мутации снаружи не видны другим читателям
	got.Step = dialog.StepConfirm
	again, err := store.Get(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, dialog.StepChooseDate, again.Step)
}

func TestMemory_GetMissing(t *testing.T) {
	store := NewMemory(time.Minute)

	_, err := store.Get(context.Background(), 555)
	assert.ErrorIs(t, err, dialog.ErrSessionNotFound)
}

func TestMemory_TTLExpiry(t *testing.T) {
	store := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, dialog.NewSession(555)))
	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, 555)
	assert.ErrorIs(t, err, dialog.ErrSessionNotFound)
}

func TestMemory_SetExtendsTTL(t *testing.T) {
	store := NewMemory(40 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, dialog.NewSession(555)))
	time.Sleep(25 * time.Millisecond)
	require.NoError(t, store.Set(ctx, dialog.NewSession(555)))
	time.Sleep(25 * time.Millisecond)

	// После повторного Set суммарные 50мс не истекли
	_, err := store.Get(ctx, 555)
	assert.NoError(t, err)
}

func TestMemory_Delete(t *testing.T) {
	store := NewMemory(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, dialog.NewSession(555)))
	require.NoError(t, store.Delete(ctx, 555))

	_, err := store.Get(ctx, 555)
	assert.ErrorIs(t, err, dialog.ErrSessionNotFound)
}

func TestMemory_Cleanup(t *testing.T) {
	store := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, dialog.NewSession(1)))
	require.NoError(t, store.Set(ctx, dialog.NewSession(2)))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, store.Set(ctx, dialog.NewSession(3)))

	removed := store.Cleanup()
	assert.Equal(t, 2, removed)

	_, err := store.Get(ctx, 3)
	assert.NoError(t, err)
}

func TestMemory_SetNil(t *testing.T) {
	store := NewMemory(time.Minute)
	assert.Error(t, store.Set(context.Background(), nil))
}
