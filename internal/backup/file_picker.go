package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirectoryPicker saves into a fixed directory and opens the newest backup in it.
type DirectoryPicker struct {
	dir    string
	prefix string
}

func NewDirectoryPicker(dir, prefix string) *DirectoryPicker {
	return &DirectoryPicker{dir: dir, prefix: prefix}
}

func (p *DirectoryPicker) Name() string { return "directory" }

func (p *DirectoryPicker) Save(ctx context.Context, suggestedName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	fileName := filepath.Join(p.dir, filepath.Base(suggestedName))
	if err := writeFileAtomic(fileName, data); err != nil {
		return "", err
	}
	return fileName, nil
}

func (p *DirectoryPicker) Open(ctx context.Context) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	fileName, err := p.newest()
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fileName, nil, err
	}
	return fileName, data, nil
}

func (p *DirectoryPicker) newest() (string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoBackup
		}
		return "", err
	}

	type candidate struct {
		name    string
		modUnix int64
	}
	var candidates []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, p.prefix+"-backup-") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, modUnix: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", ErrNoBackup
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modUnix != candidates[j].modUnix {
			return candidates[i].modUnix > candidates[j].modUnix
		}
		return candidates[i].name > candidates[j].name
	})
	return filepath.Join(p.dir, candidates[0].name), nil
}

// PathPicker targets one explicit file, as given on the command line.
type PathPicker struct {
	path string
}

func NewPathPicker(path string) *PathPicker {
	return &PathPicker{path: path}
}

func (p *PathPicker) Name() string { return "path" }

func (p *PathPicker) Save(ctx context.Context, _ string, data []byte) (string, error) {
	if p.path == "" {
		return "", ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create backup dir: %w", err)
		}
	}
	if err := writeFileAtomic(p.path, data); err != nil {
		return "", err
	}
	return p.path, nil
}

func (p *PathPicker) Open(ctx context.Context) (string, []byte, error) {
	if p.path == "" {
		return "", nil, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p.path, nil, err
	}
	return p.path, data, nil
}

// writeFileAtomic writes through a uniquely named temp file in the target
// directory, so concurrent writers of the same name never share it.
func writeFileAtomic(fileName string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(fileName), filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return err
	}
	tmpFile := file.Name()

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}
