// Package scrape extracts profile fields from the public profile page.
//
// Extraction is best effort: the page embeds a JSON state blob whose layout
// changes without notice, so fields are matched by name rather than by path.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/infra/rpc"
	"github.com/vietddude/tikwatch/internal/infra/source"
)

// stateScripts are the script tags known to carry the embedded state.
const stateScripts = `script#__UNIVERSAL_DATA_FOR_REHYDRATION__, script#SIGI_STATE, script#__NEXT_DATA__`

var patterns = map[string]*regexp.Regexp{
	"followerCount":  regexp.MustCompile(`"followerCount":(\d+)`),
	"followingCount": regexp.MustCompile(`"followingCount":(\d+)`),
	"heartCount":     regexp.MustCompile(`"heartCount":(\d+)`),
	"videoCount":     regexp.MustCompile(`"videoCount":(\d+)`),
	"nickname":       regexp.MustCompile(`"nickname":"((?:[^"\\]|\\.)+)"`),
	"verified":       regexp.MustCompile(`"verified":(true|false)`),
	"signature":      regexp.MustCompile(`"signature":"((?:[^"\\]|\\.)*)"`),
	"avatarLarger":   regexp.MustCompile(`"avatarLarger":"((?:[^"\\]|\\.)+)"`),
}

// Adapter scrapes the profile page through the proxy chain.
type Adapter struct {
	profileURL string
	fetcher    rpc.Fetcher
	now        func() time.Time
}

// New creates a scrape adapter. profileURL holds %s or {id} for the handle.
func New(profileURL string, fetcher rpc.Fetcher) *Adapter {
	return &Adapter{profileURL: profileURL, fetcher: fetcher, now: time.Now}
}

func (a *Adapter) Name() string {
	return source.NameScrape
}

func (a *Adapter) FetchProfile(ctx context.Context, handle string) (domain.ProfileRecord, error) {
	resp, err := a.fetcher.ViaProxy(ctx, source.Expand(a.profileURL, handle), map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		return domain.ProfileRecord{}, source.Fail(a.Name(), "", err)
	}

	fields := Extract(resp.Body)
	rec, found := source.ProfileFromFields(handle, fields, domain.ProvenanceScrape, a.now())
	if found == 0 {
		return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryParse,
			errors.New("no fields extracted from profile markup"))
	}
	return rec, nil
}

// Extract pulls the known fields out of a profile page. Only fields that
// matched are present in the result.
func Extract(markup []byte) source.Fields {
	text := embeddedState(markup)
	fields := source.Fields{}
	for name, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		fields[name] = unescape(m[1])
	}
	return fields
}

// embeddedState returns the text of the state scripts, or the raw markup if
// none could be found.
func embeddedState(markup []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return string(markup)
	}

	var sb strings.Builder
	doc.Find(stateScripts).Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
		sb.WriteByte('\n')
	})
	if strings.TrimSpace(sb.String()) == "" {
		return string(markup)
	}
	return sb.String()
}

// unescape decodes JSON string escapes such as \u002F.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
