package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
)

// scissors separates the user's text from instructions in an editor buffer.
const scissors = "------------------------ >8 ------------------------"

// getEditor returns the user's preferred editor from environment variables.
// It checks EDITOR, then VISUAL, and defaults to vim if neither is set.
func getEditor() string {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vim"
	}
	return editor
}

// openEditor opens the specified file in the user's editor.
// It returns an error if the editor cannot be started or exits with a non-zero status.
func openEditor(filePath string) error {
	editor := getEditor()

	cmd := exec.Command(editor, filePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editor, err)
	}

	return nil
}

// editText lets the user write text in their editor. help is shown below a
// scissors line and everything from that line on is discarded.
func editText(help string) (string, error) {
	f, err := os.CreateTemp("", "cob-*.md")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	_, err = fmt.Fprintf(f, "\n%s\n%s\n", scissors, help)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := openEditor(path); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read temp file: %w", err)
	}
	text, _, _ := strings.Cut(string(content), scissors)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("aborting: %w", domain.ErrEmptyMessage)
	}
	return text, nil
}

// splitTitle splits edited text into its first line and the remainder.
func splitTitle(text string) (title, body string) {
	title, body, _ = strings.Cut(text, "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}
