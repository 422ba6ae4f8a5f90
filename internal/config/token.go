package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const tokenKey = "TGB_TOKEN"

// ErrMissingToken is returned when no bot token can be found.
var ErrMissingToken = errors.New(tokenKey + " not found")

// ResolveToken returns the bot token. The TGB_TOKEN environment variable
// wins; otherwise envFile is searched for a TGB_TOKEN=<value> line.
func ResolveToken(e Env, envFile string) (string, error) {
	if e.Token != "" {
		return e.Token, nil
	}

	token, err := tokenFromFile(envFile)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w. Set it as an environment variable or in %s", ErrMissingToken, envFile)
	}
	return token, nil
}

// tokenFromFile reads the token from an env file. A missing file is not an
// error.
func tokenFromFile(envFile string) (string, error) {
	if envFile == "" {
		return "", nil
	}
	path, err := ExpandPath(envFile)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("unable to open env file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if value, ok := strings.CutPrefix(line, tokenKey+"="); ok {
			return strings.TrimSpace(value), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("unable to read env file: %w", err)
	}
	return "", nil
}
