package lineinfileplugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmseed/vmseed/internal/probe"
)

const defaultFileMode os.FileMode = 0o644

// fileState captures the target file prior to modification.
type fileState struct {
	path        string
	exists      bool
	permissions os.FileMode
	content     string
	lines       []string
}

func readFileState(path string) (*fileState, error) {
	expanded, err := probe.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	state := &fileState{path: expanded, permissions: defaultFileMode, lines: []string{}}

	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, err
	}

	state.exists = true
	state.permissions = info.Mode().Perm()

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}

	state.content = string(data)
	trimmed := strings.TrimSuffix(state.content, "\n")
	if trimmed != "" {
		state.lines = strings.Split(trimmed, "\n")
	}
	return state, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lineinfile-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(e error) error {
		tmp.Close()
		os.Remove(tmpName)
		return e
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

func createBackup(path string, content []byte, perm os.FileMode) (string, error) {
	base := filepath.Base(path)
	timestamp := time.Now().UTC().Format("20060102T150405")
	backupPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%s.bak", base, timestamp))

	if err := os.WriteFile(backupPath, content, perm); err != nil {
		return "", err
	}

	return backupPath, nil
}
