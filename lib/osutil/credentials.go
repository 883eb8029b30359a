package osutil

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// Credentials for an external account. Never written to disk.
type Credentials struct {
	Username string
	Password string
}

// LoadDotenv merges a .env file in the working directory into the
// environment if one exists. Existing environment variables win.
func LoadDotenv() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "err", err)
	}
}

// ResolveCredentials reads a username/password pair from the given
// environment variables, prompting interactively for whichever is
// missing. The password prompt does not echo.
func ResolveCredentials(usernameVar, passwordVar string) (Credentials, error) {
	creds := Credentials{
		Username: strings.TrimSpace(os.Getenv(usernameVar)),
		Password: os.Getenv(passwordVar),
	}
	if creds.Username != "" && creds.Password != "" {
		slog.Info("using credentials from environment", "user", creds.Username)
		return creds, nil
	}

	if creds.Username == "" {
		fmt.Fprintf(os.Stderr, "%s: ", usernameVar)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return Credentials{}, fmt.Errorf("read username: %w", err)
		}
		creds.Username = strings.TrimSpace(line)
	}
	if creds.Username == "" {
		return Credentials{}, fmt.Errorf("no username provided (set %s)", usernameVar)
	}

	if creds.Password == "" {
		fmt.Fprintf(os.Stderr, "%s: ", passwordVar)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return Credentials{}, fmt.Errorf("read password: %w", err)
		}
		creds.Password = string(raw)
	}
	if creds.Password == "" {
		return Credentials{}, fmt.Errorf("no password provided (set %s)", passwordVar)
	}

	return creds, nil
}
