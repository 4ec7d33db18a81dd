// Package scanner finds listing files under a directory tree.
package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path string
	Size int64
}

type Scanner struct {
	rootDir  string
	suffixes []string
	skipDirs map[string]bool
}

// New returns a scanner matching files that end in one of suffixes. With no
// suffix every file matches. Suffixes may span several dots, as in ".cil.yaml".
func New(rootDir string, suffixes ...string) *Scanner {
	return &Scanner{
		rootDir:  rootDir,
		suffixes: suffixes,
		skipDirs: map[string]bool{".git": true},
	}
}

// SkipDir excludes directories with the given base name.
func (s *Scanner) SkipDir(name string) *Scanner {
	s.skipDirs[name] = true
	return s
}

// Scan walks the tree and returns the matching files sorted by path.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.rootDir && s.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.isTargetFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Paths is Scan without the sizes.
func (s *Scanner) Paths() ([]string, error) {
	files, err := s.Scan()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, err
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.suffixes) == 0 {
		return true
	}
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
