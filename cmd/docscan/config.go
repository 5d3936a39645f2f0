package main

import (
	"errors"
	"os"
	"path/filepath"
)

var configNames = []string{
	"config.yaml",
	"config.yml",
	"config.json",
}

// findConfig resolves the config file: the flag, then $DOCSCAN_CONFIG, then
// the working directory, then the directory of the executable.
func findConfig(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}

	if path := os.Getenv("DOCSCAN_CONFIG"); path != "" {
		return path, nil
	}

	var dirs []string

	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	return lookupConfig(dirs...)
}

func lookupConfig(dirs ...string) (string, error) {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)

			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, nil
			}
		}
	}

	return "", errors.New("no config.yaml or config.json found, use -config or DOCSCAN_CONFIG")
}
