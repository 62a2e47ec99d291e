package confkit

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

// Files tried at every directory level, most specific first. godotenv.Load never
// overrides a variable that is already set, so the first file to define a key wins.
var dotenvNames = []string{".env.local", ".env"}

var dotenvOnce sync.Once

// LoadDotenvOnce loads .env.local and .env files walking up from this package to
// the module root. Variables already present in the process environment win
// unless DOTENV_OVERLOAD=1. ENV_FILE names a single file to load instead, and
// NO_DOTENV=1 disables loading entirely.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}

	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}
	tryLoad := func(path string) {
		if fileExists(path) {
			_ = load(path)
		}
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		tryLoad(envFile)
		return
	}

	dir, ok := sourceDir()
	if !ok {
		for _, name := range dotenvNames {
			tryLoad(name)
		}
		return
	}
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range dotenvNames {
			tryLoad(filepath.Join(dir, name))
		}
		if isModuleRoot(dir) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func sourceDir() (string, bool) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", false
	}
	return filepath.Dir(file), true
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func dirEntryExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
