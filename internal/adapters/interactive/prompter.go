package interactive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/lunes-platform/lunex-cli/internal/domain/config"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
)

// ErrNotConfirmed is returned when the operator declines a prompt
var ErrNotConfirmed = errors.New("operation not confirmed")

// Prompter asks the operator for confirmation and choices
type Prompter struct {
	config *config.RuntimeConfig
}

// NewPrompter creates a new prompter
func NewPrompter(cfg *config.RuntimeConfig) *Prompter {
	return &Prompter{config: cfg}
}

// ConfirmNetwork asks before state-changing commands on a mainnet profile.
// Non-interactive runs proceed without asking.
func (p *Prompter) ConfirmNetwork(action string, network *config.Network) error {
	if network == nil || !network.Mainnet || p.config.NonInteractive {
		return nil
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s on %s (chain %d)", action, color.New(color.FgRed, color.Bold).Sprint(network.Name), network.ChainID),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return ErrNotConfirmed
		}
		return fmt.Errorf("confirmation failed: %w", err)
	}
	return nil
}

// Select picks one of the options, searching them fuzzily
func (p *Prompter) Select(label string, options []string) (string, error) {
	if p.config.NonInteractive {
		return "", fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to select for %s", label)
	}
	if len(options) == 1 {
		return options[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  fuzzySearch(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return options[index], nil
}

// fuzzySearch matches substrings first, then fuzzy subsequences
func fuzzySearch(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])
		if strings.Contains(item, input) {
			return true
		}
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}
