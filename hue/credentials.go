package hue

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// credentialsDir overrides the default credentials directory for testing.
// When empty, the user's home directory is used.
var credentialsDir string

func credentialsPath() (string, error) {
	if credentialsDir != "" {
		return filepath.Join(credentialsDir, "credentials.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ambient", "credentials.json"), nil
}

func readAllCredentials(path string) (map[string]Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var creds map[string]Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// LoadCredentials loads the stored credentials for the given bridge ID.
// Returns false with no error if no credentials are found.
func LoadCredentials(bridgeID string) (Credentials, bool, error) {
	path, err := credentialsPath()
	if err != nil {
		return Credentials{}, false, err
	}

	creds, err := readAllCredentials(path)
	if err != nil {
		return Credentials{}, false, nil
	}

	c, ok := creds[bridgeID]
	if !ok {
		return Credentials{}, false, nil
	}
	return c, true, nil
}

// SaveCredentials persists the credentials for the given bridge ID.
// Creates the credentials directory with 0700 if needed.
func SaveCredentials(bridgeID string, creds Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	all, err := readAllCredentials(path)
	if err != nil || all == nil {
		all = make(map[string]Credentials)
	}

	all[bridgeID] = creds

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// DeleteCredentials removes the stored credentials for the given bridge ID.
func DeleteCredentials(bridgeID string) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	all, err := readAllCredentials(path)
	if err != nil {
		return err
	}

	delete(all, bridgeID)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
