package autofill

import (
	"context"
	"errors"
	"testing"

	"github.com/cctv-report/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

var registry = []model.Device{
	{ID: "1", Name: "Camera-Lobby-01", SerialNumber: "SN001", IP: "10.0.0.5"},
	{ID: "2", Name: "Camera-Gate-02", SerialNumber: "SN002"},
}

func TestWithDeviceMatchOverwrites(t *testing.T) {
	snap := NewSnapshot(registry)
	form := Form{SerialNumber: "typed-sn", IP: "typed-ip"}

	got, ok := form.WithDevice("Camera-Lobby-01", snap)

	assert.True(t, ok)
	assert.Equal(t, Form{Device: "Camera-Lobby-01", SerialNumber: "SN001", IP: "10.0.0.5"}, got)
}

func TestWithDeviceMatchWithoutIPClearsIP(t *testing.T) {
	snap := NewSnapshot(registry)

	got, ok := Form{IP: "typed-ip"}.WithDevice("Camera-Gate-02", snap)

	assert.True(t, ok)
	assert.Equal(t, "SN002", got.SerialNumber)
	assert.Empty(t, got.IP)
}

func TestWithDeviceMissLeavesFields(t *testing.T) {
	snap := NewSnapshot(registry)
	form := Form{Device: "Camera-Lobby-01", SerialNumber: "SN001", IP: "10.0.0.5"}

	tests := []string{"Camera-Lobby-0", "camera-lobby-01", "Camera-Lobby-01 ", ""}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := form.WithDevice(name, snap)
			assert.False(t, ok)
			assert.Equal(t, name, got.Device)
			assert.Equal(t, "SN001", got.SerialNumber)
			assert.Equal(t, "10.0.0.5", got.IP)
		})
	}
}

func TestManualEditAfterAutofill(t *testing.T) {
	snap := NewSnapshot(registry)

	form, _ := Form{}.WithDevice("Camera-Lobby-01", snap)
	form.SerialNumber = "SN001-replaced"

	assert.Equal(t, "SN001-replaced", form.SerialNumber)
	assert.Equal(t, "10.0.0.5", form.IP)
}

func TestSnapshotFirstMatchWins(t *testing.T) {
	snap := NewSnapshot([]model.Device{
		{ID: "a", Name: "Dup", SerialNumber: "FIRST"},
		{ID: "b", Name: "Dup", SerialNumber: "SECOND"},
	})

	fields, ok := ResolveDeviceFields("Dup", snap)
	assert.True(t, ok)
	assert.Equal(t, "FIRST", fields.SerialNumber)
	assert.Equal(t, 1, snap.Len())
}

func TestResolveNilSnapshot(t *testing.T) {
	_, ok := ResolveDeviceFields("Camera-Lobby-01", nil)
	assert.False(t, ok)
	assert.Equal(t, 0, (*Snapshot)(nil).Len())
}

type listerFunc func(ctx context.Context) ([]model.Device, error)

func (f listerFunc) ListDevices(ctx context.Context) ([]model.Device, error) { return f(ctx) }

func TestLoadSwallowsReadFailure(t *testing.T) {
	failing := listerFunc(func(context.Context) ([]model.Device, error) {
		return nil, errors.New("connection refused")
	})

	snap := Load(context.Background(), failing, zaptest.NewLogger(t))

	assert.Equal(t, 0, snap.Len())
	got, ok := Form{SerialNumber: "manual"}.WithDevice("Camera-Lobby-01", snap)
	assert.False(t, ok)
	assert.Equal(t, "manual", got.SerialNumber)
}

func TestLoad(t *testing.T) {
	ok := listerFunc(func(context.Context) ([]model.Device, error) { return registry, nil })

	snap := Load(context.Background(), ok, zaptest.NewLogger(t))

	assert.Equal(t, 2, snap.Len())
}
