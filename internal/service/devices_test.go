package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/model"
	"github.com/cctv-report/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faultyStore fails the nth InsertDevice of a merge batch.
type faultyStore struct {
	*db.SQLite
	failAt int
}

func (f *faultyStore) WithDeviceTx(ctx context.Context, fn func(db.DeviceTx) error) error {
	return f.SQLite.WithDeviceTx(ctx, func(tx db.DeviceTx) error {
		return fn(&faultyTx{DeviceTx: tx, failAt: f.failAt})
	})
}

type faultyTx struct {
	db.DeviceTx
	failAt int
	calls  int
}

func (t *faultyTx) InsertDevice(ctx context.Context, d model.Device) error {
	t.calls++
	if t.calls == t.failAt {
		return errors.New("disk full")
	}
	return t.DeviceTx.InsertDevice(ctx, d)
}

// brokenLister always fails the registry read.
type brokenLister struct {
	deviceRepo
}

func (brokenLister) ListDevices(context.Context) ([]model.Device, error) {
	return nil, errors.New("connection refused")
}

func newDeviceService(t *testing.T) (*DeviceService, *db.SQLite) {
	t.Helper()
	store := testutil.NewStore(t)
	return NewDeviceService(store, nil, testutil.Logger(t), nil), store
}

func byName(devices []model.Device) map[string]model.Device {
	out := make(map[string]model.Device, len(devices))
	for _, d := range devices {
		out[d.Name] = d
	}
	return out
}

func TestMergeDefaultsThreeCandidates(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	_, err := svc.SaveDevice(ctx, model.DeviceRequest{ID: "existing-a", Name: "A", SerialNumber: "OLD"})
	require.NoError(t, err)

	res, err := svc.MergeDefaults(ctx, []model.DeviceRequest{
		{Name: "A", SerialNumber: "NEW"},
		{ID: "dev-b", Name: "B", SerialNumber: "SB"},
		{Name: "C", SerialNumber: "SC"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.MergeResult{InsertedCount: 2, SkippedCount: 1}, res)

	list, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	devices := byName(list)
	assert.Equal(t, "existing-a", devices["A"].ID)
	assert.Equal(t, "OLD", devices["A"].SerialNumber, "existing device is never overwritten")
	assert.Equal(t, "dev-b", devices["B"].ID, "candidate id is preserved")
	_, err = uuid.Parse(devices["C"].ID)
	assert.NoError(t, err, "missing id gets a generated uuid")
}

func TestMergeDefaultsIdempotent(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()
	batch := []model.DeviceRequest{{Name: "Cam-1"}, {Name: "Cam-2"}}

	first, err := svc.MergeDefaults(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.InsertedCount)

	before, err := svc.ListDevices(ctx)
	require.NoError(t, err)

	second, err := svc.MergeDefaults(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, model.MergeResult{InsertedCount: 0, SkippedCount: 2}, second)

	after, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMergeDefaultsDuplicateWithinBatch(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	res, err := svc.MergeDefaults(ctx, []model.DeviceRequest{
		{Name: "Gate", SerialNumber: "first"},
		{Name: "Gate", SerialNumber: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.MergeResult{InsertedCount: 1, SkippedCount: 1}, res)

	list, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].SerialNumber)
}

func TestMergeDefaultsExactNameMatch(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	_, err := svc.SaveDevice(ctx, model.DeviceRequest{Name: "camera-1"})
	require.NoError(t, err)

	res, err := svc.MergeDefaults(ctx, []model.DeviceRequest{{Name: "Camera-1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.InsertedCount)
}

func TestMergeDefaultsEmpty(t *testing.T) {
	svc := NewDeviceService(nil, nil, testutil.Logger(t), nil)

	res, err := svc.MergeDefaults(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.MergeResult{}, res)
}

func TestMergeDefaultsRejectsBlankName(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	_, err := svc.MergeDefaults(ctx, []model.DeviceRequest{{Name: "X"}, {Name: "  "}})
	require.ErrorIs(t, err, ErrValidation)

	list, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMergeDefaultsRollsBackMidBatch(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	_, err := store.UpsertDevice(ctx, model.Device{ID: "keep", Name: "Existing", SerialNumber: "S0"})
	require.NoError(t, err)

	svc := NewDeviceService(&faultyStore{SQLite: store, failAt: 3}, nil, testutil.Logger(t), nil)
	_, err = svc.MergeDefaults(ctx, []model.DeviceRequest{
		{Name: "N1"}, {Name: "N2"}, {Name: "N3"}, {Name: "N4"}, {Name: "N5"},
	})
	require.ErrorIs(t, err, ErrStorage)

	list, err := store.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "no candidate from the failed batch is visible")
	assert.Equal(t, "keep", list[0].ID)
}

func TestMergeConfiguredDefaults(t *testing.T) {
	store := testutil.NewStore(t)
	catalog := []model.Device{
		{ID: "cam-lobby-01", Name: "Camera-Lobby-01", SerialNumber: "SN001", IP: "10.0.0.5"},
		{Name: "Camera-Gate-02", SerialNumber: "SN002"},
	}
	svc := NewDeviceService(store, catalog, testutil.Logger(t), nil)
	ctx := context.Background()

	assert.Equal(t, catalog, svc.DefaultDevices())

	res, err := svc.MergeConfiguredDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.InsertedCount)

	list, err := store.ListDevices(ctx)
	require.NoError(t, err)
	names := []string{list[0].Name, list[1].Name}
	sort.Strings(names)
	assert.Equal(t, []string{"Camera-Gate-02", "Camera-Lobby-01"}, names)
}

func TestSaveDevice(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	created, err := svc.SaveDevice(ctx, model.DeviceRequest{Name: "Cam", SerialNumber: "S1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := svc.SaveDevice(ctx, model.DeviceRequest{ID: created.ID, Name: "Cam", SerialNumber: "S2"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "S2", updated.SerialNumber)

	_, err = svc.SaveDevice(ctx, model.DeviceRequest{Name: "Cam"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.SaveDevice(ctx, model.DeviceRequest{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteDeviceTwice(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	d, err := svc.SaveDevice(ctx, model.DeviceRequest{Name: "Cam"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDevice(ctx, d.ID))
	require.NoError(t, svc.DeleteDevice(ctx, d.ID))

	list, err := svc.ListDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAutofill(t *testing.T) {
	svc, _ := newDeviceService(t)
	ctx := context.Background()

	_, err := svc.SaveDevice(ctx, model.DeviceRequest{Name: "Camera-Lobby-01", SerialNumber: "SN001", IP: "10.0.0.5"})
	require.NoError(t, err)

	got := svc.Autofill(ctx, model.AutofillRequest{Device: "Camera-Lobby-01", SerialNumber: "typed", IP: "typed"})
	assert.Equal(t, model.AutofillResponse{Device: "Camera-Lobby-01", SerialNumber: "SN001", IP: "10.0.0.5", Matched: true}, got)

	got = svc.Autofill(ctx, model.AutofillRequest{Device: "Unknown", SerialNumber: "X", IP: "1.2.3.4"})
	assert.Equal(t, model.AutofillResponse{Device: "Unknown", SerialNumber: "X", IP: "1.2.3.4"}, got)
}

func TestAutofillRegistryUnavailable(t *testing.T) {
	svc := NewDeviceService(brokenLister{}, nil, testutil.Logger(t), nil)

	got := svc.Autofill(context.Background(), model.AutofillRequest{Device: "Cam", SerialNumber: "S"})
	assert.False(t, got.Matched)
	assert.Equal(t, "S", got.SerialNumber)
}
