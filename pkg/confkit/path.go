package confkit

import (
	"fmt"
	"os"
	"path/filepath"
)

const maxWalkDepth = 8

func isModuleRoot(dir string) bool {
	return dirEntryExists(filepath.Join(dir, "go.mod")) || dirEntryExists(filepath.Join(dir, ".git"))
}

// ProjectRoot walks up from this source file to the first directory holding
// go.mod or .git, falling back to the working directory.
func ProjectRoot() (string, error) {
	if dir, ok := sourceDir(); ok {
		for i := 0; i < maxWalkDepth; i++ {
			if isModuleRoot(dir) {
				return dir, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// MustProjectRoot returns the repository root path or panics on failure.
func MustProjectRoot() string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return root
}

// ProjectPath joins the repository root with rel.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// MustProjectPath returns ProjectPath(rel) and panics on failure.
func MustProjectPath(rel string) string {
	p, err := ProjectPath(rel)
	if err != nil {
		panic(err)
	}
	return p
}
