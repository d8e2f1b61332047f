package models

// PairedDevice is a remote device allowed to push changes. SessionToken is
// the only credential accepted from it. LastSyncAt is empty until the first
// recorded sync.
type PairedDevice struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	SessionToken string `json:"session_token"`
	LastSyncAt   string `json:"last_sync_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}
