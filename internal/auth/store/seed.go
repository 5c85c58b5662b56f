package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// SeedUser is one entry of the seed file given via SEED_USERS_FILE. Seeding
// keeps fresh deployments usable without a registration endpoint.
type SeedUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// LoadSeedUsers reads a JSON array of seed users from disk.
func LoadSeedUsers(path string) ([]SeedUser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var users []SeedUser
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return users, nil
}
