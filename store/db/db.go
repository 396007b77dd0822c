package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/store"
	"github.com/hrygo/eventbot/store/db/jsonfile"
	"github.com/hrygo/eventbot/store/db/postgres"
	"github.com/hrygo/eventbot/store/db/sqlite"
)

// NewDBDriver creates new store driver based on profile.
//
// jsonfile is the default and keeps the collection in a human-editable
// events.json next to the bot state. sqlite and postgres offer the same
// semantics behind a database when the file store is not enough.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "jsonfile":
		driver, err = jsonfile.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown store driver: %q", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create store driver")
	}
	return driver, nil
}
