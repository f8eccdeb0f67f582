package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// FileStore stores sessions as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based session store.
// If baseDir is empty, defaults to ~/.config/designer/sessions/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "designer", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (f *FileStore) sessionPath(name string) string {
	return filepath.Join(f.baseDir, name+".json")
}

// load reads a session file. The caller must hold the lock.
func (f *FileStore) load(name string) (*Session, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.sessionPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", name)
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse session %q", name)
	}
	return &sess, nil
}

// write persists a session file. The caller must hold the lock.
func (f *FileStore) write(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(f.sessionPath(sess.Name), data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Save(ctx context.Context, name string, s *model.Snapshot, algorithm, note string) (*Entry, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	sess, err := f.load(name)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeSessionNotFound) {
			return nil, err
		}
		sess = &Session{Name: name, CreatedAt: now}
	}

	entry := Entry{
		Seq:      sess.NextSeq,
		Note:     note,
		SavedAt:  now,
		Document: diagram.FromSnapshot(s, algorithm),
	}
	sess.NextSeq++
	sess.UpdatedAt = now
	sess.Entries = append(sess.Entries, entry)
	if len(sess.Entries) > MaxHistory {
		sess.Entries = sess.Entries[len(sess.Entries)-MaxHistory:]
	}

	if err := f.write(sess); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (f *FileStore) Restore(ctx context.Context, name string) (*model.Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	sess, err := f.load(name)
	if err != nil {
		return nil, err
	}
	latest := sess.Latest()
	if latest == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q is empty", name)
	}
	return diagram.ToSnapshot(latest.Document)
}

func (f *FileStore) RestoreAt(ctx context.Context, name string, seq int) (*model.Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	sess, err := f.load(name)
	if err != nil {
		return nil, err
	}
	entry, err := sess.EntryAt(seq)
	if err != nil {
		return nil, err
	}
	return diagram.ToSnapshot(entry.Document)
}

func (f *FileStore) Get(ctx context.Context, name string) (*Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.load(name)
}

func (f *FileStore) List(ctx context.Context) ([]Info, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := f.load(name)
		if err != nil {
			// Corrupt or foreign file, skip it.
			continue
		}
		infos = append(infos, Info{
			Name:      sess.Name,
			Entries:   len(sess.Entries),
			UpdatedAt: sess.UpdatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (f *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.sessionPath(name)); err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", name)
		}
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Path returns the base directory for session files.
func (f *FileStore) Path() string {
	return f.baseDir
}

var _ Store = (*FileStore)(nil)
