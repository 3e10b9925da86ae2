package devserver

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/marcus/scribe/internal/directory"
)

// SampleUsers is served when no users file is configured.
var SampleUsers = []directory.User{
	{Username: "johndoe", FirstName: "John", LastName: "Doe", Email: "john@example.com"},
	{Username: "janedoe", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
	{Username: "bobsmith", FirstName: "Bob", LastName: "Smith", Email: "bob@example.com"},
	{Username: "alicedoe", FirstName: "Alice", LastName: "Doe", Email: "alice@example.com"},
	{Username: "maryann", FirstName: "Mary", LastName: "Ann"},
	{Username: "annabel", FirstName: "Annabel", LastName: "Lee"},
	{Username: "zoe", FirstName: "Zoë", LastName: "Kravitz"},
}

// LoadUsers reads a JSON array of users. An empty path returns SampleUsers.
func LoadUsers(path string) ([]directory.User, error) {
	if path == "" {
		return SampleUsers, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	var users []directory.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse users %s: %w", path, err)
	}
	return users, nil
}
