package cache

import "time"

// Account represents an interactively signed-in account remembered between
// runs of the console. At most one account is cached per profile; signing in
// with a different account replaces the previous record.
type Account struct {
	// ID is the stable account identifier issued by the identity provider.
	ID string `gorm:"primaryKey;size:255"`
	// TenantID is the directory tenant the account belongs to.
	TenantID string `gorm:"size:100"`
	// Subject is the OIDC subject (sub claim) of the account.
	Subject string `gorm:"size:255;not null"`
	// Username is the principal name the account signed in with.
	Username string `gorm:"size:255;not null"`
	// DisplayName is the human-readable name of the account.
	DisplayName string `gorm:"size:255"`
	// Email is the account's email address.
	Email string `gorm:"size:255"`
	// CreatedAt is the timestamp when the account was first cached (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the account was last refreshed (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Account model.
// This overrides GORM's default pluralized table naming.
func (Account) TableName() string {
	return "accounts"
}
