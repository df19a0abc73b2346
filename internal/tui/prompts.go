package tui

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	cwerrors "worktree.dev/cw/internal/errors"
)

// ErrInteractiveDisabled is returned when prompts are requested without a terminal
// or with CW_NO_INTERACTIVE set
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (no terminal or CW_NO_INTERACTIVE is set)")

// IsTTY returns true if both stdin and stdout are terminals
func IsTTY() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}

// InteractiveAllowed reports whether prompts may be shown
func InteractiveAllowed() bool {
	return os.Getenv("CW_NO_INTERACTIVE") == "" && IsTTY()
}

// SurveyPrompter asks questions on the terminal with survey
type SurveyPrompter struct{}

// NewSurveyPrompter creates a terminal prompter
func NewSurveyPrompter() *SurveyPrompter {
	return &SurveyPrompter{}
}

// Confirm asks a yes/no question, defaulting to no. Ctrl+C counts as an abort.
func (p *SurveyPrompter) Confirm(message string) (bool, error) {
	if !InteractiveAllowed() {
		return false, ErrInteractiveDisabled
	}
	var ok bool
	if err := survey.AskOne(&survey.Confirm{Message: message}, &ok); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, cwerrors.ErrAborted
		}
		return false, err
	}
	return ok, nil
}

// MultiSelect lets the user pick any number of options
func (p *SurveyPrompter) MultiSelect(message string, options []string) ([]string, error) {
	if !InteractiveAllowed() {
		return nil, ErrInteractiveDisabled
	}
	var selected []string
	prompt := &survey.MultiSelect{Message: message, Options: options}
	if err := survey.AskOne(prompt, &selected); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return nil, cwerrors.ErrAborted
		}
		return nil, err
	}
	return selected, nil
}
