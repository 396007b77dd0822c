// Package jsonfile persists the event collection as a pretty-printed JSON
// array, matching the hand-editable events.json layout the bot has always
// used. Writes go through a temp file and rename so a replace is atomic on
// the same filesystem.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/store"
)

const (
	tmpSuffix       = ".tmp"
	filePermissions = 0o644
	stateFileName   = "state.json"
)

type DB struct {
	profile    *profile.Profile
	eventsPath string
	statePath  string
}

// NewDB creates a jsonfile driver rooted at the profile DSN. A missing
// events file is not an error; it reads as an empty collection until the
// first write creates it.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("jsonfile driver requires a DSN path")
	}

	dir := filepath.Dir(profile.DSN)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", dir)
	}

	return &DB{
		profile:    profile,
		eventsPath: profile.DSN,
		statePath:  filepath.Join(dir, stateFileName),
	}, nil
}

func (d *DB) Close() error {
	return nil
}

func (d *DB) LoadEvents(_ context.Context) ([]*store.Event, error) {
	data, err := os.ReadFile(d.eventsPath)
	if os.IsNotExist(err) {
		return []*store.Event{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", d.eventsPath)
	}

	events := []*store.Event{}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", d.eventsPath)
	}
	return events, nil
}

func (d *DB) ReplaceEvents(_ context.Context, events []*store.Event) error {
	if events == nil {
		events = []*store.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal events")
	}
	return d.writeAtomic(d.eventsPath, data)
}

func (d *DB) LoadBotState(_ context.Context) (*store.BotState, error) {
	data, err := os.ReadFile(d.statePath)
	if os.IsNotExist(err) {
		return &store.BotState{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", d.statePath)
	}

	state := &store.BotState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", d.statePath)
	}
	return state, nil
}

func (d *DB) SaveBotState(_ context.Context, state *store.BotState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal bot state")
	}
	return d.writeAtomic(d.statePath, data)
}

// writeAtomic writes to a temp file first, then renames it over the target.
func (d *DB) writeAtomic(path string, data []byte) error {
	tmpPath := path + tmpSuffix
	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
