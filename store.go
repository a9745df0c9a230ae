package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const schemaVersion = "1.0"

type Metadata struct {
	LastUpdated string `json:"last_updated"`
	Version     string `json:"version"`
}

// Document is the entire persisted state. Every mutation rewrites it
// whole, so a single advisory lock is the only coordination needed.
type Document struct {
	Participants []Participant `json:"participants"`
	Gifts        []Gift        `json:"gifts"`
	GameState    GameState     `json:"game_state"`
	Metadata     Metadata      `json:"metadata"`
}

func newDocument() *Document {
	return &Document{
		Participants: []Participant{},
		Gifts:        []Gift{},
		GameState:    newGameState(),
		Metadata: Metadata{
			LastUpdated: time.Now().Format(time.RFC3339Nano),
			Version:     schemaVersion,
		},
	}
}

func (d *Document) findGift(giftID string) *Gift {
	for i := range d.Gifts {
		if d.Gifts[i].ID == giftID {
			return &d.Gifts[i]
		}
	}

	return nil
}

func (d *Document) findParticipant(participantID int) *Participant {
	for i := range d.Participants {
		if d.Participants[i].ID == participantID {
			return &d.Participants[i]
		}
	}

	return nil
}

// lowestFreeParticipantID returns the smallest unassigned id in
// [1, maxParticipants], or 0 if every slot is taken.
func (d *Document) lowestFreeParticipantID() int {
	used := make(map[int]bool, len(d.Participants))
	for _, p := range d.Participants {
		used[p.ID] = true
	}

	for id := 1; id <= maxParticipants; id++ {
		if !used[id] {
			return id
		}
	}

	return 0
}

// Store is the persistence seam. Update runs exactly one
// read-modify-write cycle: callers never see read and write as
// separate steps, which is what keeps commands atomic.
type Store interface {
	Read() (*Document, error)
	Update(fn func(*Document) error) (*Document, error)
}

// FileStore keeps the document in a single JSON file guarded by an
// advisory lock, retrying I/O failures with exponential backoff.
// apiErrors returned by update callbacks are never retried.
//
// The flock serializes writers in other processes; the mutex
// serializes goroutines in this one, since flock(2) locks are per-fd
// and do not exclude holders of the same descriptor.
type FileStore struct {
	path       string
	lock       *flock.Flock
	mu         sync.RWMutex
	retries    int
	retryDelay time.Duration
}

func NewFileStore(path string, retries int, retryDelay time.Duration) (*FileStore, error) {
	s := &FileStore{
		path:       path,
		lock:       flock.New(path + ".lock"),
		retries:    retries,
		retryDelay: retryDelay,
	}

	if err := s.ensure(); err != nil {
		return nil, fmt.Errorf("initializing data file %s: %w", path, err)
	}

	return s, nil
}

func (s *FileStore) ensure() error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return s.writeDocument(newDocument())
}

func (s *FileStore) Read() (*Document, error) {
	var doc *Document

	err := s.withRetries(func() error {
		s.mu.RLock()
		defer s.mu.RUnlock()

		if err := s.lock.RLock(); err != nil {
			return err
		}
		defer s.lock.Unlock()

		var err error
		doc, err = s.readDocument()

		return err
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *FileStore) Update(fn func(*Document) error) (*Document, error) {
	var doc *Document

	err := s.withRetries(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.lock.Lock(); err != nil {
			return err
		}
		defer s.lock.Unlock()

		current, err := s.readDocument()
		if err != nil {
			return err
		}

		if err := fn(current); err != nil {
			return err
		}

		current.Metadata.LastUpdated = time.Now().Format(time.RFC3339Nano)
		current.Metadata.Version = schemaVersion

		if err := s.writeDocument(current); err != nil {
			return err
		}

		doc = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// withRetries reruns op with exponentially growing delays, passing
// business (apiError) failures straight through since repeating them
// cannot change the outcome.
func (s *FileStore) withRetries(op func() error) error {
	var lastErr error
	delay := s.retryDelay

	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}

		err := op()
		if err == nil {
			return nil
		}

		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return err
		}

		lastErr = err
	}

	return storeUnavailableError("Operation failed after %d attempts: %v", s.retries, lastErr)
}

func (s *FileStore) readDocument() (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return newDocument(), nil
	}

	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}

	if doc.Participants == nil {
		doc.Participants = []Participant{}
	}
	if doc.Gifts == nil {
		doc.Gifts = []Gift{}
	}
	if doc.GameState.TurnOrder == nil {
		doc.GameState.TurnOrder = []int{}
	}
	if doc.GameState.GamePhase == "" {
		doc.GameState.GamePhase = phaseRegistration
	}

	return doc, nil
}

// writeDocument stages the new document in a temp file and renames it
// into place, so a crash mid-write leaves the previous document intact.
func (s *FileStore) writeDocument(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-")
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())

		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())

		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())

		return err
	}

	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())

		return err
	}

	return os.Rename(f.Name(), s.path)
}
