package cache

import (
	"errors"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const (
	idQueryPattern = "id = ?"
)

// Open opens (or creates) the account cache database at the given path and
// migrates its schema. The path usually points at accounts.db inside the
// profile directory; ":memory:" works for tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(&Account{}); err != nil {
		return nil, err
	}

	return db, nil
}

// Get retrieves a cached account by its ID.
func Get(db *gorm.DB, id string) (*Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if id == "" {
		return nil, ErrAccountIDEmpty
	}

	var account Account
	result := db.Where(idQueryPattern, id).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, result.Error
	}

	return &account, nil
}

// One retrieves the single cached account. It returns ErrAccountNotFound when
// the cache is empty and ErrMultipleAccountsFound when more than one record
// exists.
func One(db *gorm.DB) (*Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var accounts []Account
	result := db.Limit(2).Find(&accounts)
	if result.Error != nil {
		return nil, result.Error
	}

	switch len(accounts) {
	case 0:
		return nil, ErrAccountNotFound
	case 1:
		return &accounts[0], nil
	default:
		return nil, ErrMultipleAccountsFound
	}
}

// Save creates or updates a cached account by ID (upsert operation).
// Saving an account with an ID different from the currently cached one
// replaces the old record, keeping the single-account invariant.
func Save(db *gorm.DB, account *Account) (*Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if account == nil || account.ID == "" {
		return nil, ErrAccountIDEmpty
	}

	var existing Account
	result := db.Where(idQueryPattern, account.ID).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		// A different account may still be cached; replace it.
		if err := db.Where("id <> ?", account.ID).Delete(&Account{}).Error; err != nil {
			return nil, err
		}

		if err := db.Create(account).Error; err != nil {
			return nil, err
		}

		return account, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	// Account exists, refresh its profile fields. CreatedAt is kept so the
	// record's identity stays stable across token refreshes.
	existing.TenantID = account.TenantID
	existing.Subject = account.Subject
	existing.Username = account.Username
	existing.DisplayName = account.DisplayName
	existing.Email = account.Email

	result = db.Save(&existing)
	if result.Error != nil {
		return nil, result.Error
	}

	return &existing, nil
}

// Delete removes a cached account by ID. Deleting an absent account is not an
// error.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}
	if id == "" {
		return ErrAccountIDEmpty
	}

	return db.Where(idQueryPattern, id).Delete(&Account{}).Error
}

// Clear removes every cached account. It backs the sign-out path, which must
// leave no identity behind regardless of how many records exist.
func Clear(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("1 = 1").Delete(&Account{}).Error
}
