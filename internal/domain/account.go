package domain

import "time"

// Account is an anonymous identity. There is no username, email or profile
// data; the only linkable attribute is the device fingerprint, an opaque
// client-generated UUID.
type Account struct {
	ID                string // ULID
	DeviceFingerprint string // UUID supplied by the device
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
