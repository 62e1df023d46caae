package daemon

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/auth/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/session"
)

// accountCacheFile is the sqlite file the account cache lives in when the
// configuration names no explicit path.
const accountCacheFile = "accounts.db"

// Profile bundles everything living in the profile directory: the shared
// session store, the account cache and the sealed secret store.
type Profile struct {
	Dir      string
	Store    *session.Store
	Accounts *gorm.DB
	Secrets  *cache.SecretStore
}

// PrepareProfile resolves the profile directory, creates it when missing and
// opens the stores inside it. The directory is private to the local user;
// every process sharing it (daemon or CLI) sees the same session.
func PrepareProfile(cfg *config.Config) (*Profile, error) {
	dir, err := cfg.ResolveProfileDir()
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create profile directory")
	}

	store, err := session.NewStore(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session store")
	}

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath = filepath.Join(dir, accountCacheFile)
	}

	accounts, err := cache.Open(cachePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open account cache")
	}

	secrets, err := cache.NewSecretStore(dir, cfg.Cache.UseKeyring)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open secret store")
	}

	return &Profile{
		Dir:      dir,
		Store:    store,
		Accounts: accounts,
		Secrets:  secrets,
	}, nil
}
