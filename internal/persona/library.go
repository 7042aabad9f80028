package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Library holds the persona profiles available to sessions, keyed by ID.
type Library struct {
	profiles map[string]Profile
}

// LoadLibrary reads every *.json profile under dir. A profile file without an
// explicit id falls back to its file name. A missing directory yields an
// empty library, not an error, so a fresh deployment starts clean.
func LoadLibrary(dir string) (*Library, error) {
	lib := &Library{profiles: map[string]Profile{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("read persona dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var p Profile
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if p.ID == "" {
			p.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		lib.profiles[p.ID] = p
	}
	return lib, nil
}

// Profile looks up a persona by ID.
func (l *Library) Profile(id string) (Profile, bool) {
	p, ok := l.profiles[id]
	return p, ok
}

func (l *Library) Len() int {
	return len(l.profiles)
}
