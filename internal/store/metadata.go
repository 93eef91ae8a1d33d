// Package store implements file-based persistence for team documents:
// an in-memory metadata index backed by one JSON file per document.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/QR-Madness/diagrammer-host/internal/permission"
)

// ShareEntry records one explicit grant of access to a document.
type ShareEntry struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Permission string `json:"permission"`
	SharedAt   int64  `json:"sharedAt"`
}

// DocumentMetadata is the lightweight record kept in the index for
// listing and permission checks, separate from a document's full body.
type DocumentMetadata struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PageCount  int    `json:"pageCount"`
	ModifiedAt int64  `json:"modifiedAt"`
	CreatedAt  int64  `json:"createdAt"`

	IsTeamDocument   *bool        `json:"isTeamDocument,omitempty"`
	LockedBy         *string      `json:"lockedBy,omitempty"`
	LockedByName     *string      `json:"lockedByName,omitempty"`
	LockedAt         *int64       `json:"lockedAt,omitempty"`
	OwnerID          *string      `json:"ownerId,omitempty"`
	OwnerName        *string      `json:"ownerName,omitempty"`
	SharedWith       []ShareEntry `json:"sharedWith,omitempty"`
	LastModifiedBy   *string      `json:"lastModifiedBy,omitempty"`
	LastModifiedByName *string    `json:"lastModifiedByName,omitempty"`
}

// OwnerUserID implements permission.Metadata.
func (m DocumentMetadata) OwnerUserID() string {
	if m.OwnerID == nil {
		return ""
	}
	return *m.OwnerID
}

// Shares implements permission.Metadata.
func (m DocumentMetadata) Shares() []permission.Share {
	shares := make([]permission.Share, len(m.SharedWith))
	for i, s := range m.SharedWith {
		shares[i] = permission.Share{UserID: s.UserID, Permission: s.Permission}
	}
	return shares
}

// writeJSONAtomic marshals v as indented JSON and writes it to path via
// a tmp-file-then-rename so a crash mid-write never leaves a truncated
// file in place.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename tmp to %s: %w", filepath.Base(path), err)
	}
	return nil
}
