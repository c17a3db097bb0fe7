package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// ShowLogsInput contains the parameters for showing an issue's log.
type ShowLogsInput struct {
	IssueID string // Issue id or unambiguous prefix (required)
	Lines   int    // Number of lines to display from the end (0 = all)
}

// ShowLogsOutput contains the result of showing an issue's log.
type ShowLogsOutput struct {
	LogPath string // Path to the log file
	Content string // Log file content
}

// ShowLogs is the use case for viewing the per-object log written by the
// local logger.
type ShowLogs struct {
	issues *issue.Issues
	cobDir string
}

// NewShowLogs creates a new ShowLogs use case.
func NewShowLogs(issues *issue.Issues, cobDir string) *ShowLogs {
	return &ShowLogs{
		issues: issues,
		cobDir: cobDir,
	}
}

// Execute reads and returns the log content.
func (uc *ShowLogs) Execute(ctx context.Context, in ShowLogsInput) (*ShowLogsOutput, error) {
	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}

	logPath := domain.ObjectLogPath(uc.cobDir, id)
	content, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoObjectLog, id.Short())
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}

	// If lines is specified, get only the last N lines
	result := strings.TrimSuffix(string(content), "\n")
	if in.Lines > 0 {
		lines := strings.Split(result, "\n")
		if len(lines) > in.Lines {
			lines = lines[len(lines)-in.Lines:]
		}
		result = strings.Join(lines, "\n")
	}

	return &ShowLogsOutput{
		LogPath: logPath,
		Content: result,
	}, nil
}
