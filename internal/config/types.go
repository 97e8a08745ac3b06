package config

import (
	"errors"
	"fmt"

	"github.com/pingwarden/pingwarden/internal/models"
)

var (
	ErrEmptyAddress    = errors.New("target address must not be empty")
	ErrDuplicateTarget = errors.New("duplicate target id")
	ErrUnknownTarget   = errors.New("unknown target id")
	ErrInvalidSocket   = errors.New("invalid ping socket type")
)

// Validate checks AppConfig invariants: target ids unique, socket type known.
func Validate(cfg *models.AppConfig) error {
	seen := make(map[string]struct{}, len(cfg.Targets))

	for _, t := range cfg.Targets {
		if t.ID == "" {
			continue // ApplyDefaults fills blank ids after Validate; boot also
			// pre-fills them via Document.FillBlankTargetIDs before Typed()
		}

		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTarget, t.ID)
		}

		seen[t.ID] = struct{}{}

		if t.Address == "" {
			return fmt.Errorf("%w: target %s", ErrEmptyAddress, t.ID)
		}
	}

	switch cfg.Ping.SocketType {
	case models.SocketDgram, models.SocketRaw, "":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidSocket, cfg.Ping.SocketType)
	}

	return nil
}

// ApplyDefaults fills in server/logging/database/ping defaults and assigns
// a fresh id to any target that was loaded with a blank one. It returns
// true if any target id was generated, which signals the caller to
// rewrite the file once.
func ApplyDefaults(cfg *models.AppConfig, newID func() string) (rewriteNeeded bool) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data"
	}

	if cfg.Ping.SocketType == "" {
		cfg.Ping.SocketType = models.SocketDgram
	}

	for i := range cfg.Targets {
		if cfg.Targets[i].ID == "" {
			cfg.Targets[i].ID = newID()
			rewriteNeeded = true
		}

		cfg.Targets[i] = cfg.Targets[i].WithDefaults()
	}

	return rewriteNeeded
}
