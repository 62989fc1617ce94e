package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/storyloom/storyloom-backend/internal/common"
)

// EntryFragment holds the structured fields of a single journal entry or
// comment, exactly as displayed by the origin page. Identity fields are
// free text; resolution to internal records happens downstream.
type EntryFragment struct {
	Username    string
	IconURL     string
	IconKeyword string
	Content     string
	TitleLink   string
	PostedAt    time.Time
}

func fragmentErr(url, field string) error {
	return &common.MalformedFragmentError{URL: url, Field: field}
}

// fragmentFromSelection extracts one fragment from an entry or comment
// node. Author and timestamp are mandatory: a fragment without them is a
// malformed page, not skippable content.
func fragmentFromSelection(url string, node *goquery.Selection, contentSel string) (*EntryFragment, error) {
	frag := &EntryFragment{}

	poster := node.Find(selPoster).First()
	if poster.Length() == 0 {
		return nil, fragmentErr(url, "author")
	}
	// The site scheme carries the account name in the lj:user attribute;
	// the visible <b> text is a fallback for older markup.
	if name, ok := poster.Attr("lj:user"); ok && name != "" {
		frag.Username = name
	} else {
		frag.Username = strings.TrimSpace(poster.Find("b").First().Text())
	}
	if frag.Username == "" {
		return nil, fragmentErr(url, "author")
	}

	if pic := node.Find(selUserpic).First(); pic.Length() > 0 {
		frag.IconURL, _ = pic.Attr("src")
		if kw, ok := pic.Attr("title"); ok {
			frag.IconKeyword = kw
		} else {
			frag.IconKeyword, _ = pic.Attr("alt")
		}
	}

	dt := node.Find(selDatetime).First()
	if dt.Length() == 0 {
		return nil, fragmentErr(url, "timestamp")
	}
	postedAt, err := parseTimestamp(dt.Text())
	if err != nil {
		return nil, fragmentErr(url, "timestamp")
	}
	frag.PostedAt = postedAt

	if link := node.Find(selCommentTitle).First(); link.Length() > 0 {
		frag.TitleLink, _ = link.Attr("href")
	}

	content := node.Find(contentSel).First()
	if content.Length() == 0 {
		return nil, fragmentErr(url, "content")
	}
	// Drop the edit-time footer the platform injects after an edit; it
	// is presentation noise, not authored content.
	content.Find(selEditFooter).Remove()
	html, err := content.Html()
	if err != nil {
		return nil, fragmentErr(url, "content")
	}
	frag.Content = strings.TrimSpace(html)

	return frag, nil
}

// Displayed datetime formats observed on the origin platform
var timestampLayouts = []string{
	"2006-01-02 03:04 pm",
	"2006-01-02 15:04",
	"Jan. 2, 2006 03:04 pm",
}

// parseTimestamp parses a displayed datetime like
// "2016-04-12 03:45 pm (UTC)". The parenthesized zone label is stripped;
// values are taken as UTC, which is what style=site renders.
func parseTimestamp(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if i := strings.LastIndex(text, " ("); i > 0 && strings.HasSuffix(text, ")") {
		text = text[:i]
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, text, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
