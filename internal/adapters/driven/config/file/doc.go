// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.refshelf/config.toml
//   - PromptStore: user-editable classification prompt openings
//
// LoadSettings maps a ConfigStore onto domain.Settings.
package file
