// Package contextselect picks which execution context the CLI acts as. The
// web and extension contexts each have their own credential store, so a
// session in one is invisible to the other.
package contextselect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/cli/credstore"
	"github.com/coldread-dev/coldread/internal/cli/userconfig"
)

// Name identifies an execution context.
type Name string

const (
	Web       Name = "web"
	Extension Name = "extension"
)

// All lists the known contexts in display order.
var All = []Name{Web, Extension}

// Parse validates a context name.
func Parse(s string) (Name, error) {
	switch n := Name(strings.ToLower(strings.TrimSpace(s))); n {
	case Web, Extension:
		return n, nil
	}
	return "", fmt.Errorf("unknown context '%s', must be 'web' or 'extension'", s)
}

// Describe returns a short label for prompts and status output.
func (n Name) Describe() string {
	switch n {
	case Web:
		return "web app (local web storage)"
	case Extension:
		return "browser extension (OS keychain)"
	}
	return string(n)
}

// OpenStore returns the credential store owned by context n.
func OpenStore(n Name, log zerolog.Logger) (credstore.Store, error) {
	switch n {
	case Web:
		dir, err := userconfig.GetConfigDir()
		if err != nil {
			return nil, err
		}
		return credstore.NewFileStore(
			filepath.Join(dir, credstore.WebStorageFileName),
			credstore.WithFileLogger(log),
		), nil
	case Extension:
		return credstore.NewExtensionStore(), nil
	}
	return nil, fmt.Errorf("unknown context '%s'", n)
}

// Resolve determines which context to use based on the following priority:
// 1. If the --context flag is provided, use that
// 2. If COLDREAD_CONTEXT is set, use that
// 3. If the user has a selected context in their local config, use that
// 4. Otherwise default to the web context
func Resolve(flagValue string) (Name, error) {
	// Priority 1: explicit flag
	if flagValue != "" {
		return Parse(flagValue)
	}

	// Priority 2: environment
	if env := os.Getenv("COLDREAD_CONTEXT"); env != "" {
		return Parse(env)
	}

	// Priority 3: saved selection
	selected, err := userconfig.GetSelectedContext()
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	if selected != "" {
		name, err := Parse(selected)
		if err == nil {
			return name, nil
		}
		// Saved value is no longer valid, clear it and continue
		_ = userconfig.SetSelectedContext("")
	}

	return Web, nil
}

// Prompt shows an interactive prompt for the user to select a context
func Prompt() (Name, error) {
	type option struct {
		Label string
		Name  Name
	}

	options := make([]option, len(All))
	for i, n := range All {
		options[i] = option{
			Label: fmt.Sprintf("%s - %s", n, n.Describe()),
			Name:  n,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select an execution context",
		Items:     options,
		Templates: templates,
		Size:      len(options),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("context selection cancelled: %w", err)
	}

	return options[index].Name, nil
}
