package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/QR-Madness/diagrammer-host/internal/permission"
)

// ErrNotFound is returned when a document id is absent from the index.
var ErrNotFound = errors.New("document not found")

// ErrMissingID is returned by Save when the document body has no "id"
// field to key the index by.
var ErrMissingID = errors.New("document missing id field")

// Document is the full, free-form body of a document as the client
// sends it. Only a handful of fields are interpreted here; everything
// else round-trips untouched.
type Document = map[string]any

// DocumentStore is the team-document store: an in-memory metadata index
// for fast listing, backed by one JSON file per document body under
// <dataDir>/team_documents/docs.
type DocumentStore struct {
	mu    sync.RWMutex
	dir   string
	index map[string]DocumentMetadata
}

// NewDocumentStore opens (and creates if absent) a document store under
// dataDir/team_documents, loading any existing index.
func NewDocumentStore(dataDir string) *DocumentStore {
	dir := filepath.Join(dataDir, "team_documents")
	_ = os.MkdirAll(dir, 0o755)
	_ = os.MkdirAll(filepath.Join(dir, "docs"), 0o755)

	s := &DocumentStore{dir: dir, index: make(map[string]DocumentMetadata)}
	s.loadIndex()
	return s
}

func (s *DocumentStore) indexPath() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *DocumentStore) docPath(id string) string {
	return filepath.Join(s.dir, "docs", id+".json")
}

func (s *DocumentStore) loadIndex() {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return
	}
	var index map[string]DocumentMetadata
	if err := json.Unmarshal(data, &index); err != nil {
		return
	}
	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
}

func (s *DocumentStore) saveIndex() error {
	s.mu.RLock()
	index := s.index
	s.mu.RUnlock()
	return writeJSONAtomic(s.indexPath(), index)
}

// List returns a snapshot of every document's metadata.
func (s *DocumentStore) List() []DocumentMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocumentMetadata, 0, len(s.index))
	for _, m := range s.index {
		out = append(out, m)
	}
	return out
}

// Get loads a document's full body. It fails with ErrNotFound unless
// the id is present in the index.
func (s *DocumentStore) Get(id string) (Document, error) {
	s.mu.RLock()
	_, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(s.docPath(id))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// GetMetadata returns the index entry for id.
func (s *DocumentStore) GetMetadata(id string) (DocumentMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.index[id]
	return m, ok
}

// Lookup adapts GetMetadata to permission.MetadataLookup.
func (s *DocumentStore) Lookup(id string) (permission.Metadata, bool) {
	m, ok := s.GetMetadata(id)
	if !ok {
		return nil, false
	}
	return m, true
}

// Save creates or updates a document: it extracts the metadata fields
// from doc, writes the full body to its own file, and updates the
// index. The returned bool reports whether this was a creation (the id
// was absent from the prior index) so callers can emit the right
// DocEvent type.
func (s *DocumentStore) Save(doc Document) (created bool, err error) {
	id, _ := doc["id"].(string)
	if id == "" {
		return false, ErrMissingID
	}

	meta := metadataFromDocument(id, doc)

	if err := writeJSONAtomic(s.docPath(id), doc); err != nil {
		return false, fmt.Errorf("write document: %w", err)
	}

	s.mu.Lock()
	_, existed := s.index[id]
	s.index[id] = meta
	s.mu.Unlock()

	if err := s.saveIndex(); err != nil {
		return !existed, fmt.Errorf("save index: %w", err)
	}

	log.Printf("store: saved team document %s", id)
	return !existed, nil
}

func metadataFromDocument(id string, doc Document) DocumentMetadata {
	name, _ := doc["name"].(string)
	if name == "" {
		name = "Untitled"
	}

	pageCount := 1
	if order, ok := doc["pageOrder"].([]any); ok {
		pageCount = len(order)
	}

	modifiedAt := nowMillis()
	if v, ok := doc["modifiedAt"].(float64); ok {
		modifiedAt = int64(v)
	}
	createdAt := modifiedAt
	if v, ok := doc["createdAt"].(float64); ok {
		createdAt = int64(v)
	}

	meta := DocumentMetadata{
		ID:                 id,
		Name:               name,
		PageCount:          pageCount,
		ModifiedAt:         modifiedAt,
		CreatedAt:          createdAt,
		IsTeamDocument:     optBool(doc["isTeamDocument"]),
		LockedBy:           optString(doc["lockedBy"]),
		LockedByName:       optString(doc["lockedByName"]),
		LockedAt:           optInt64(doc["lockedAt"]),
		OwnerID:            optString(doc["ownerId"]),
		OwnerName:          optString(doc["ownerName"]),
		LastModifiedBy:     optString(doc["lastModifiedBy"]),
		LastModifiedByName: optString(doc["lastModifiedByName"]),
	}

	if raw, ok := doc["sharedWith"]; ok {
		if reencoded, err := json.Marshal(raw); err == nil {
			var shares []ShareEntry
			if json.Unmarshal(reencoded, &shares) == nil {
				meta.SharedWith = shares
			}
		}
	}

	return meta
}

func optBool(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func optString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func optInt64(v any) *int64 {
	switch n := v.(type) {
	case float64:
		i := int64(n)
		return &i
	case int64:
		return &n
	default:
		return nil
	}
}

// Delete removes a document's file and index entry, reporting whether
// anything was removed.
func (s *DocumentStore) Delete(id string) (bool, error) {
	s.mu.RLock()
	_, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := os.Remove(s.docPath(id)); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("delete document file: %w", err)
	}

	s.mu.Lock()
	delete(s.index, id)
	s.mu.Unlock()

	if err := s.saveIndex(); err != nil {
		return false, fmt.Errorf("save index: %w", err)
	}

	log.Printf("store: deleted team document %s", id)
	return true, nil
}

// IsLockedByOther reports whether id is currently locked by a user
// other than userID.
func (s *DocumentStore) IsLockedByOther(id, userID string) bool {
	meta, ok := s.GetMetadata(id)
	if !ok || meta.LockedBy == nil {
		return false
	}
	return *meta.LockedBy != userID
}

// SetLock updates a document's lock fields. Passing an empty userID
// clears the lock.
func (s *DocumentStore) SetLock(id, userID, userName string) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}

	if userID == "" {
		doc["lockedBy"] = nil
		doc["lockedByName"] = nil
		doc["lockedAt"] = nil
	} else {
		if userName == "" {
			userName = "Unknown"
		}
		doc["lockedBy"] = userID
		doc["lockedByName"] = userName
		doc["lockedAt"] = nowMillis()
	}

	_, err = s.Save(doc)
	return err
}

// UpdateShares replaces a document's sharedWith list. Entries whose
// permission is "none" are dropped, matching the client's convention
// for revoking access.
func (s *DocumentStore) UpdateShares(id string, shares []ShareEntry) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}

	now := nowMillis()
	kept := make([]ShareEntry, 0, len(shares))
	for _, sh := range shares {
		if sh.Permission == "none" {
			continue
		}
		sh.SharedAt = now
		kept = append(kept, sh)
	}

	doc["sharedWith"] = kept
	if _, err := s.Save(doc); err != nil {
		return err
	}

	log.Printf("store: updated shares for document %s: %d users", id, len(kept))
	return nil
}

// TransferOwnership makes newOwnerID the document's owner, demoting
// previousOwnerID to an editor share (added if not already present) and
// dropping newOwnerID from the share list.
func (s *DocumentStore) TransferOwnership(id, newOwnerID, newOwnerName, previousOwnerID string) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}

	doc["ownerId"] = newOwnerID
	doc["ownerName"] = newOwnerName

	var shares []ShareEntry
	if raw, ok := doc["sharedWith"]; ok {
		if reencoded, err := json.Marshal(raw); err == nil {
			_ = json.Unmarshal(reencoded, &shares)
		}
	}

	kept := make([]ShareEntry, 0, len(shares)+1)
	hasPrevious := false
	for _, sh := range shares {
		if sh.UserID == newOwnerID {
			continue
		}
		if sh.UserID == previousOwnerID {
			hasPrevious = true
		}
		kept = append(kept, sh)
	}

	if !hasPrevious {
		previousName, _ := doc["lastModifiedByName"].(string)
		if previousName == "" {
			previousName = "Previous Owner"
		}
		kept = append(kept, ShareEntry{
			UserID:     previousOwnerID,
			UserName:   previousName,
			Permission: permission.Editor.String(),
			SharedAt:   nowMillis(),
		})
	}

	doc["sharedWith"] = kept

	if _, err := s.Save(doc); err != nil {
		return err
	}

	log.Printf("store: transferred ownership of document %s from %s to %s", id, previousOwnerID, newOwnerID)
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
