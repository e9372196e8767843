package model

import "time"

// ============================================================================
// Device model (registry entry)
// ============================================================================

// Device - a registered CCTV device. Name is the natural key used by the
// default-import merge and by incident autofill.
type Device struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	SerialNumber string    `json:"sn" yaml:"sn"`
	Model        string    `json:"model,omitempty" yaml:"model"`
	IP           string    `json:"ip,omitempty" yaml:"ip"`
	CreatedAt    time.Time `json:"-" yaml:"-"`
	UpdatedAt    time.Time `json:"-" yaml:"-"`
}

// DeviceRequest - device create/update payload
type DeviceRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"sn"`
	Model        string `json:"model"`
	IP           string `json:"ip"`
}

// DeviceSyncRequest - default device import payload
type DeviceSyncRequest struct {
	Devices []DeviceRequest `json:"devices"`
}

// MergeResult - outcome of a default device merge
type MergeResult struct {
	InsertedCount int `json:"insertedCount"`
	SkippedCount  int `json:"skippedCount"`
}

// DeviceSyncResponse - /devices/sync response
type DeviceSyncResponse struct {
	Status        string `json:"status"`
	InsertedCount int    `json:"insertedCount"`
	SkippedCount  int    `json:"skippedCount"`
}

// AutofillRequest - in-progress incident form state sent on a device name change
type AutofillRequest struct {
	Device       string `json:"device"`
	IP           string `json:"ip"`
	SerialNumber string `json:"sn"`
}

// AutofillResponse - form state after the device name change was applied
type AutofillResponse struct {
	Device       string `json:"device"`
	IP           string `json:"ip"`
	SerialNumber string `json:"sn"`
	Matched      bool   `json:"matched"`
}
