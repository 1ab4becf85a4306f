package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
)

var (
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgHiWhite, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
)

func provenanceTag(p domain.Provenance) string {
	if p.IsSynthesized() {
		return warnColor.Sprintf("[%s]", p)
	}
	return successColor.Sprintf("[%s]", p)
}

func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %s\n", labelColor.Sprintf("%-12s", label+":"), valueColor.Sprint(value))
}

func renderProfile(w io.Writer, rec domain.ProfileRecord) {
	name := rec.DisplayName
	if rec.Verified {
		name += " ✓"
	}
	fmt.Fprintf(w, "@%s (%s) %s\n", rec.Handle, name, provenanceTag(rec.Provenance))
	field(w, "Followers", rec.FollowerCount)
	field(w, "Following", rec.FollowingCount)
	field(w, "Likes", rec.LikeCount)
	field(w, "Videos", rec.VideoCount)
	field(w, "Bio", rec.Bio)
	field(w, "Avatar", rec.AvatarURL)
}

func renderLive(w io.Writer, rec domain.LiveStatsRecord) {
	state := warnColor.Sprint("offline")
	if rec.IsLive {
		state = successColor.Sprint("LIVE")
	}
	fmt.Fprintf(w, "@%s %s %s\n", rec.Handle, state, provenanceTag(rec.Provenance))
	field(w, "Viewers", rec.Viewers)
	field(w, "Likes", rec.Likes)
	field(w, "New follows", rec.NewFollows)
	field(w, "Shares", rec.Shares)

	if len(rec.Comments) == 0 {
		return
	}
	fmt.Fprintln(w, labelColor.Sprint("  Comments:"))
	for _, c := range rec.Comments {
		author := c.Author
		if c.IsSystem {
			author = warnColor.Sprint(author)
		}
		fmt.Fprintf(w, "    %s %s: %s\n", c.Timestamp.Format("15:04:05"), author, c.Text)
	}
}

func renderError(w io.Writer, err error) {
	var resolved *failure.ResolvedError
	if !errors.As(err, &resolved) {
		fmt.Fprintf(w, "%s %v\n", errorColor.Sprint("error:"), err)
		return
	}

	title := resolved.Text
	if resolved.NotLive {
		title = "the user is not live right now"
	}
	fmt.Fprintf(w, "%s %s\n", errorColor.Sprintf("%s:", resolved.Category), title)
	field(w, "Request", fmt.Sprintf("%s(%s)", resolved.Method, resolved.Subject))
	field(w, "ID", resolved.ID)

	if len(resolved.Attempts) > 0 {
		fmt.Fprintln(w, labelColor.Sprint("  Attempts:"))
		for i, a := range resolved.Attempts {
			fmt.Fprintf(w, "    %d. %-8s %s %s\n", i+1, a.Source, warnColor.Sprint(a.Category), a.Message)
		}
	}
	if len(resolved.Suggestions) > 0 {
		fmt.Fprintln(w, labelColor.Sprint("  Suggestions:"))
		for _, s := range resolved.Suggestions {
			fmt.Fprintf(w, "    - %s\n", s)
		}
	}
	if resolved.Retryable() {
		fmt.Fprintln(w, successColor.Sprint("  This failure may be temporary, run the command again to retry."))
	}
}

func errorJSON(err error) any {
	var resolved *failure.ResolvedError
	if errors.As(err, &resolved) {
		return resolved
	}
	return map[string]string{"error": err.Error()}
}
