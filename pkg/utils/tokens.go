package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	appDirName     = ".locum-dental"
	tokenFilePerms = 0600 // Read/write for owner only
	tokenDirPerms  = 0700 // Read/write/execute for owner only
)

// appPath returns a path under the per-user application directory, creating the parent directory
func appPath(parts ...string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	path := filepath.Join(append([]string{homeDir, appDirName}, parts...)...)
	if err := os.MkdirAll(filepath.Dir(path), tokenDirPerms); err != nil {
		return "", fmt.Errorf("failed to create token directory: %w", err)
	}
	return path, nil
}

// readJSONFile decodes path into v. Returns false if the file doesn't exist.
func readJSONFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read token file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse token file: %w", err)
	}
	return true, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

type sessionFile struct {
	Token string `json:"token"`
}

func sessionFilePath(env string) (string, error) {
	return appPath(fmt.Sprintf("session-%s.json", env))
}

// SaveSessionToken stores the signed-in session token for the given environment
func SaveSessionToken(env, token string) error {
	path, err := sessionFilePath(env)
	if err != nil {
		return err
	}
	return writeJSONFile(path, sessionFile{Token: token})
}

// LoadSessionToken returns the stored session token, or "" when nobody is signed in
func LoadSessionToken(env string) (string, error) {
	path, err := sessionFilePath(env)
	if err != nil {
		return "", err
	}

	var f sessionFile
	if _, err := readJSONFile(path, &f); err != nil {
		return "", err
	}
	return f.Token, nil
}

// DeleteSessionToken forgets the stored session token for the given environment
func DeleteSessionToken(env string) error {
	path, err := sessionFilePath(env)
	if err != nil {
		return err
	}
	return removeFile(path)
}
