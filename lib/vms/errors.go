package vms

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a guest is not found on the target node
	ErrNotFound = errors.New("vm not found")

	// ErrInvalidRequest is returned when a creation request fails validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyExists is returned when creating a guest whose id is taken
	ErrAlreadyExists = errors.New("vm already exists")

	// ErrInvalidState is returned when the guest's current state does not
	// permit the requested action
	ErrInvalidState = errors.New("invalid state for requested action")

	// ErrUnsupportedStorage is returned when an explicitly named storage
	// backend is missing or does not hold VM images
	ErrUnsupportedStorage = errors.New("storage does not support vm images")

	// ErrNoSuitableStorage is returned when auto-detection finds no
	// images-capable backend on the node
	ErrNoSuitableStorage = errors.New("no suitable storage for vm images")

	// ErrPermission is returned when Proxmox rejects the call for
	// authentication or authorization reasons
	ErrPermission = errors.New("permission denied by proxmox")
)

// classificationTable maps signal phrases found in Proxmox's free-text
// failures to the error taxonomy. First match wins; matching is
// case-insensitive. This is a heuristic: the upstream API exposes no
// structured error codes, and nothing guarantees these phrases are stable
// across Proxmox releases.
var classificationTable = []struct {
	phrases  []string
	sentinel error
}{
	{[]string{"does not exist", "not found", "no such"}, ErrNotFound},
	{[]string{"already exist", "already used", "already taken"}, ErrAlreadyExists},
	{[]string{"not running", "already running", "wrong state", "invalid state"}, ErrInvalidState},
	{[]string{"permission denied", "permission check failed", "authentication failure", "invalid token", "401 ", "403 "}, ErrPermission},
}

// Classify normalizes an unstructured collaborator failure into the error
// taxonomy, keeping the original message for diagnostics. Unmatched
// failures pass through wrapped with the operation only, to be surfaced as
// operational errors.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, entry := range classificationTable {
		for _, phrase := range entry.phrases {
			if strings.Contains(msg, phrase) {
				return fmt.Errorf("%w: %s: %v", entry.sentinel, op, err)
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
