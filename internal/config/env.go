package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadDotEnv reads .env files beside the config file and in the working
// directory. Variables already present in the environment win.
func loadDotEnv(configDir string) error {
	candidates := []string{}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".env")
		if len(candidates) == 0 || candidates[0] != local {
			candidates = append(candidates, local)
		}
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
