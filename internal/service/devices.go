package service

import (
	"context"
	"strings"

	"github.com/cctv-report/backend/internal/autofill"
	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/metrics"
	"github.com/cctv-report/backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// deviceRepo - device registry storage
type deviceRepo interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
	UpsertDevice(ctx context.Context, d model.Device) (*model.Device, error)
	DeleteDevice(ctx context.Context, id string) error
	WithDeviceTx(ctx context.Context, fn func(db.DeviceTx) error) error
}

// DeviceService - device registry, default import and autofill
type DeviceService struct {
	repo     deviceRepo
	defaults []model.Device
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewDeviceService(repo deviceRepo, defaults []model.Device, logger *zap.Logger, m *metrics.Metrics) *DeviceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults == nil {
		defaults = []model.Device{}
	}
	return &DeviceService{repo: repo, defaults: defaults, logger: logger, metrics: m}
}

func (s *DeviceService) ListDevices(ctx context.Context) ([]model.Device, error) {
	devices, err := s.repo.ListDevices(ctx)
	if err != nil {
		return nil, storageErr("list devices", err)
	}
	if devices == nil {
		devices = []model.Device{}
	}
	return devices, nil
}

// SaveDevice - create or replace a device by id. An empty id gets a new UUID.
func (s *DeviceService) SaveDevice(ctx context.Context, req model.DeviceRequest) (*model.Device, error) {
	d := deviceFromRequest(req)
	if strings.TrimSpace(d.Name) == "" {
		return nil, validationErr("device name is required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	saved, err := s.repo.UpsertDevice(ctx, d)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflictErr("device name %q already exists", d.Name)
		}
		return nil, storageErr("save device", err)
	}
	s.logger.Info("device saved", zap.String("device_id", saved.ID), zap.String("device_name", saved.Name))
	return saved, nil
}

// DeleteDevice - removing an absent id is not an error.
func (s *DeviceService) DeleteDevice(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationErr("device id is required")
	}
	if err := s.repo.DeleteDevice(ctx, id); err != nil {
		return storageErr("delete device", err)
	}
	s.logger.Info("device deleted", zap.String("device_id", id))
	return nil
}

// MergeDefaults - insert every candidate whose name is not yet registered.
//
// Existing devices are never modified. Names are compared exactly and a name
// inserted earlier in the same batch also counts as existing. The batch runs
// in one transaction: any failure leaves the registry unchanged.
func (s *DeviceService) MergeDefaults(ctx context.Context, candidates []model.DeviceRequest) (model.MergeResult, error) {
	if len(candidates) == 0 {
		return model.MergeResult{}, nil
	}

	devices := make([]model.Device, len(candidates))
	for i, req := range candidates {
		d := deviceFromRequest(req)
		if strings.TrimSpace(d.Name) == "" {
			return model.MergeResult{}, validationErr("device #%d: name is required", i+1)
		}
		devices[i] = d
	}

	var result model.MergeResult
	err := s.repo.WithDeviceTx(ctx, func(tx db.DeviceTx) error {
		result = model.MergeResult{}

		names, err := tx.DeviceNames(ctx)
		if err != nil {
			return err
		}
		existing := make(map[string]struct{}, len(names)+len(devices))
		for _, name := range names {
			existing[name] = struct{}{}
		}

		for _, d := range devices {
			if _, ok := existing[d.Name]; ok {
				result.SkippedCount++
				continue
			}
			if d.ID == "" {
				d.ID = uuid.NewString()
			}
			if err := tx.InsertDevice(ctx, d); err != nil {
				return err
			}
			existing[d.Name] = struct{}{}
			result.InsertedCount++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("device merge rolled back", zap.Int("candidates", len(devices)), zap.Error(err))
		if db.IsUniqueViolation(err) {
			return model.MergeResult{}, conflictErr("a device id in the batch is already registered under another name")
		}
		return model.MergeResult{}, storageErr("merge devices", err)
	}

	s.metrics.DevicesMerged(result.InsertedCount, result.SkippedCount)
	s.logger.Info("default devices merged",
		zap.Int("inserted", result.InsertedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// DefaultDevices - the server-side default catalog
func (s *DeviceService) DefaultDevices() []model.Device {
	out := make([]model.Device, len(s.defaults))
	copy(out, s.defaults)
	return out
}

// MergeConfiguredDefaults - merge the server-side default catalog
func (s *DeviceService) MergeConfiguredDefaults(ctx context.Context) (model.MergeResult, error) {
	reqs := make([]model.DeviceRequest, len(s.defaults))
	for i, d := range s.defaults {
		reqs[i] = model.DeviceRequest{
			ID:           d.ID,
			Name:         d.Name,
			SerialNumber: d.SerialNumber,
			Model:        d.Model,
			IP:           d.IP,
		}
	}
	return s.MergeDefaults(ctx, reqs)
}

// Autofill - apply a device name change to an in-progress incident form
func (s *DeviceService) Autofill(ctx context.Context, req model.AutofillRequest) model.AutofillResponse {
	snap := autofill.Load(ctx, s.repo, s.logger)
	form := autofill.Form{Device: req.Device, SerialNumber: req.SerialNumber, IP: req.IP}
	form, matched := form.WithDevice(req.Device, snap)
	return model.AutofillResponse{
		Device:       form.Device,
		IP:           form.IP,
		SerialNumber: form.SerialNumber,
		Matched:      matched,
	}
}

func deviceFromRequest(req model.DeviceRequest) model.Device {
	return model.Device{
		ID:           strings.TrimSpace(req.ID),
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		IP:           req.IP,
	}
}
