package domain

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName     = errors.New("name is required")
	ErrEmptyIdentity = errors.New("identity is required")
)

// Identity is the locally-entered user for the current process.
// Created once at login; immutable afterwards. Never persisted server-side.
type Identity struct {
	Name     string
	Identity string
}

// NewIdentity validates and builds an Identity. Both fields are required;
// validation happens here so no blank identity ever reaches the session layer.
func NewIdentity(name, identity string) (Identity, error) {
	name = strings.TrimSpace(name)
	identity = strings.TrimSpace(identity)

	if name == "" {
		return Identity{}, ErrEmptyName
	}
	if identity == "" {
		return Identity{}, ErrEmptyIdentity
	}

	return Identity{Name: name, Identity: identity}, nil
}
