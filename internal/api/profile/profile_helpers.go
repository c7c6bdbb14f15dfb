package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BaseContext opens every profile; the companion is appended to it.
const BaseContext = "Soy un turista que viaja con"

// Companions maps the menu choice to the companion word used in the profile.
var Companions = map[string]string{
	"1": "familia",
	"2": "amigos",
	"3": "pareja",
	"4": "solo",
}

var optionPrefixes = []string{"1.", "2.", "3."}

// ExtractOptions returns the text of the lines numbered "1.", "2." and "3."
// in a model reply, in reply order.
func ExtractOptions(reply string) []string {
	var options []string
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range optionPrefixes {
			if strings.HasPrefix(line, prefix) {
				if option := strings.TrimSpace(strings.TrimPrefix(line, prefix)); option != "" {
					options = append(options, option)
				}
				break
			}
		}
	}
	return options
}

// BuildPrompt fills {contexto} in template with the profile so far.
func BuildPrompt(template, context string) string {
	return strings.ReplaceAll(template, "{contexto}", context)
}

// SaveProfile writes the profile text to path, creating parent directories.
func SaveProfile(path, profile string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// LoadProfile reads a profile saved by SaveProfile.
func LoadProfile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read profile: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
