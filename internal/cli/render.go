package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/git-cob/internal/codec"
	"github.com/runoshun/git-cob/internal/crdt"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// printIssueList prints issues in TSV format.
// Format: ID  STATE  LABELS  TITLE
func printIssueList(w io.Writer, issues []issue.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATE\tLABELS\tTITLE")
	for _, s := range issues {
		labels := "-"
		if len(s.Issue.Labels) > 0 {
			labels = strings.Join(s.Issue.LabelNames(), ",")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID.Short(), s.Issue.State, labels, s.Issue.Title)
	}
	_ = tw.Flush()
}

// printIssueDetails renders an issue with its comments and reactions.
func printIssueDetails(w io.Writer, id domain.ObjectID, is *domain.Issue, styles Styles) {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.StateStyle(is.State).Render(StateIcon(is.State)+" "+is.State.String()),
		"  ",
		styles.Title.Render(is.Title),
	)
	_, _ = fmt.Fprintln(w, header)

	field := func(name, value string) {
		_, _ = fmt.Fprintln(w, styles.FieldLabel.Render(name)+styles.FieldValue.Render(value))
	}
	field("ID", styles.ID.Render(string(id)))
	field("Author", is.Author.String())
	if len(is.Labels) > 0 {
		badges := make([]string, len(is.Labels))
		for i, name := range is.LabelNames() {
			badges[i] = styles.LabelBadge.Render("#" + name)
		}
		field("Labels", strings.Join(badges, " "))
	} else {
		field("Labels", "none")
	}

	_, _ = fmt.Fprintln(w)
	if desc := is.Description(); desc != "" {
		_, _ = fmt.Fprintln(w, styles.Description.Render(desc))
	}
	if r := formatReactions(is.Reactions(), styles); r != "" {
		_, _ = fmt.Fprintln(w, styles.Description.Render(r))
	}

	replies := is.Replies()
	if len(replies) == 0 {
		return
	}
	separator := styles.Separator.Render("  ─────────────────")
	_, _ = fmt.Fprintln(w)
	for i, c := range replies {
		_, _ = fmt.Fprintln(w, separator)
		// Index matches `cob issue react --comment`.
		_, _ = fmt.Fprintln(w, styles.CommentHead.Render(fmt.Sprintf("  [%d] %s", i+1, c.Author)))
		_, _ = fmt.Fprintln(w, styles.CommentBody.Render(strings.TrimSpace(c.Body)))
		if r := formatReactions(c.Reactions, styles); r != "" {
			_, _ = fmt.Fprintln(w, styles.CommentBody.Render(r))
		}
	}
}

// formatReactions renders reactions sorted by symbol, e.g. "🚀 2  👀 1".
func formatReactions(reactions map[domain.Reaction]int, styles Styles) string {
	if len(reactions) == 0 {
		return ""
	}
	keys := slices.SortedFunc(maps.Keys(reactions), func(a, b domain.Reaction) int {
		return strings.Compare(a.Symbol(), b.Symbol())
	})
	parts := make([]string, len(keys))
	for i, r := range keys {
		parts[i] = styles.Reaction.Render(fmt.Sprintf("%s %d", r, reactions[r]))
	}
	return strings.Join(parts, "  ")
}

// printHistory prints an object's entries in causal order. With diag set,
// each record's changes are shown in CBOR diagnostic notation.
func printHistory(w io.Writer, obj *domain.Object, diag bool, styles Styles) error {
	for _, e := range obj.Entries {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.ID.Render("revision "+string(e.ID)), e.Message)
		if len(e.Parents) > 0 {
			short := make([]string, len(e.Parents))
			for i, p := range e.Parents {
				short[i] = p.Short()
			}
			_, _ = fmt.Fprintln(w, styles.HistoryMuted.Render("Parents: "+strings.Join(short, " ")))
		}
		_, _ = fmt.Fprintln(w, styles.HistoryMuted.Render("Author:  "+e.Author.String()))
		_, _ = fmt.Fprintln(w, styles.HistoryMuted.Render("Date:    "+e.Timestamp.Format(time.RFC3339)))
		if diag {
			payloads, err := crdt.ChunkPayloads(e.Record)
			if err != nil {
				return fmt.Errorf("decode %s: %w", e.ID.Short(), err)
			}
			for _, p := range payloads {
				text, err := codec.Diagnose(p)
				if err != nil {
					return fmt.Errorf("diagnose %s: %w", e.ID.Short(), err)
				}
				_, _ = fmt.Fprintf(w, "\n    %s\n", text)
			}
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
