// Package models defines the client-side records persisted in the vault and
// exchanged with paired devices.
package models

// Account is one OTP account row. The seed is only ever held as AES-GCM
// ciphertext (tag appended) together with its 12-byte nonce.
//
// Timestamps are UTC strings in TimeLayout; see FormatTime.
type Account struct {
	ID              int64  `json:"id"`
	Issuer          string `json:"issuer"`
	AccountName     string `json:"account_name"`
	EncryptedSecret []byte `json:"encrypted_secret"`
	SecretNonce     []byte `json:"secret_nonce"`
	SyncID          string `json:"sync_id"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// SyncAccount is the wire shape carried between devices by a sync transport.
// Deleted is advisory; Merge does not act on it.
type SyncAccount struct {
	SyncID          string `json:"sync_id"`
	Issuer          string `json:"issuer"`
	AccountName     string `json:"account_name"`
	EncryptedSecret []byte `json:"encrypted_secret"`
	SecretNonce     []byte `json:"secret_nonce"`
	UpdatedAt       string `json:"updated_at"`
	Deleted         bool   `json:"deleted"`
}

// ToSync converts a stored account into its wire representation.
func (a Account) ToSync() SyncAccount {
	return SyncAccount{
		SyncID:          a.SyncID,
		Issuer:          a.Issuer,
		AccountName:     a.AccountName,
		EncryptedSecret: a.EncryptedSecret,
		SecretNonce:     a.SecretNonce,
		UpdatedAt:       a.UpdatedAt,
	}
}

// Tombstone marks a sync_id deleted on this device.
type Tombstone struct {
	SyncID    string `json:"sync_id"`
	DeletedAt string `json:"deleted_at"`
}
