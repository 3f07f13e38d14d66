package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mars-rover/game/service"
)

const sessionFileExt = ".json"

// FilePersistence stores each session as <id>.json in one directory.
// Saves are written to a temp file and renamed into place.
type FilePersistence struct {
	dir string
}

// NewFilePersistence creates dir if needed and returns a store rooted there.
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{dir: dir}, nil
}

func (fp *FilePersistence) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return filepath.Join(fp.dir, strings.ToLower(id)+sessionFileExt), nil
}

// Save writes the session's mission inputs and current rover poses.
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	target, err := fp.path(session.ID)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fp.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("session %s: %w", session.ID, err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newPersistedSessionData(session)); err != nil {
		tmp.Close()
		return fmt.Errorf("session %s: failed to encode: %w", session.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session %s: %w", session.ID, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("session %s: failed to write: %w", session.ID, err)
	}

	log.Debug().Str("session", session.ID).Str("file", target).Msg("Session saved")
	return nil
}

// Load reads a session file and replays its mission into a fresh engine.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	target, err := fp.path(id)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("session %s: corrupt file: %w", id, err)
	}
	return data.restore()
}

// Delete removes the session file.
func (fp *FilePersistence) Delete(id string) error {
	target, err := fp.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("session %s: %w", id, err)
	}
	return nil
}

// ListAll returns the ids of every stored session. Leftover temp files from
// an interrupted save are skipped.
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != sessionFileExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, sessionFileExt))
	}
	return ids, nil
}

func (fp *FilePersistence) Exists(id string) bool {
	target, err := fp.path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(target)
	return err == nil
}
