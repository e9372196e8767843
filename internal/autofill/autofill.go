// Package autofill correlates a typed device name with the device registry
// to pre-fill the serial number and IP of an incident form.
//
// The lookup is a point-in-time convenience: values copied into a form are
// never linked back to the registry, and a failed registry read simply
// disables autofill.
package autofill

import (
	"context"

	"github.com/cctv-report/backend/internal/model"
	"go.uber.org/zap"
)

// Fields are the registry values copied into a form on a match.
type Fields struct {
	SerialNumber string
	IP           string
}

// Snapshot is an immutable name index over a device list loaded once when a
// form opens. When names repeat, the first device in list order wins.
type Snapshot struct {
	byName map[string]Fields
}

// NewSnapshot indexes devices by exact (case-sensitive) name.
func NewSnapshot(devices []model.Device) *Snapshot {
	byName := make(map[string]Fields, len(devices))
	for _, d := range devices {
		if _, seen := byName[d.Name]; seen {
			continue
		}
		byName[d.Name] = Fields{SerialNumber: d.SerialNumber, IP: d.IP}
	}
	return &Snapshot{byName: byName}
}

// Len returns the number of distinct names in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byName)
}

// ResolveDeviceFields looks typedName up in snap. A nil snapshot never matches.
func ResolveDeviceFields(typedName string, snap *Snapshot) (Fields, bool) {
	if snap == nil {
		return Fields{}, false
	}
	f, ok := snap.byName[typedName]
	return f, ok
}

// DeviceLister is the registry read used to build a snapshot.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
}

// Load builds a snapshot from the registry. A read failure is logged and
// yields an empty snapshot so the form stays usable with manual entry.
func Load(ctx context.Context, lister DeviceLister, logger *zap.Logger) *Snapshot {
	devices, err := lister.ListDevices(ctx)
	if err != nil {
		logger.Warn("autofill disabled: device registry unavailable", zap.Error(err))
		return NewSnapshot(nil)
	}
	return NewSnapshot(devices)
}

// Form is the autofill-relevant part of an in-progress incident form.
type Form struct {
	Device       string
	SerialNumber string
	IP           string
}

// WithDevice applies a change of the device name input. On a registry match
// the serial number and IP are overwritten, even if already typed; otherwise
// they are left as they were.
func (f Form) WithDevice(name string, snap *Snapshot) (Form, bool) {
	f.Device = name
	fields, ok := ResolveDeviceFields(name, snap)
	if ok {
		f.SerialNumber = fields.SerialNumber
		f.IP = fields.IP
	}
	return f, ok
}
