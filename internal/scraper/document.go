package scraper

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Site-scheme selectors for the origin platform's rendered pages.
// Forcing style=site (see NormalizeThreadURL) pins the markup to these.
const (
	selSubject       = ".entry .entry-title"
	selEntry         = ".entry"
	selEntryContent  = ".entry-content"
	selCommentThread = "#comments .comment-thread"
	selCommentBody   = ".comment"
	selPoster        = "span.ljuser"
	selUserpic       = ".userpic img"
	selDatetime      = ".datetime"
	selCommentTitle  = "h4.comment-title a"
	selPageLinks     = ".comment-pages a"
	selEditFooter    = ".edittime"
)

// RemoteDocument is the parsed representation of one fetched page.
// Ephemeral: owned by the caller for the duration of one page's
// processing, never persisted.
type RemoteDocument struct {
	URL string

	doc *goquery.Document
}

// NewRemoteDocument parses an HTML body into a RemoteDocument
func NewRemoteDocument(url string, body io.Reader) (*RemoteDocument, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, err
	}
	return &RemoteDocument{URL: url, doc: doc}, nil
}

// Subject returns the thread subject from the opening entry
func (d *RemoteDocument) Subject() string {
	return strings.TrimSpace(d.doc.Find(selSubject).First().Text())
}

// Entry extracts the thread-opening journal entry
func (d *RemoteDocument) Entry() (*EntryFragment, error) {
	entry := d.doc.Find(selEntry).First()
	if entry.Length() == 0 {
		return nil, fragmentErr(d.URL, "entry")
	}
	return fragmentFromSelection(d.URL, entry, selEntryContent)
}

// CommentCount returns the number of comment nodes on the page
func (d *RemoteDocument) CommentCount() int {
	return d.commentNodes().Length()
}

// Comment extracts the i-th comment fragment on the page
func (d *RemoteDocument) Comment(i int) (*EntryFragment, error) {
	node := d.commentNodes().Eq(i)
	if node.Length() == 0 {
		return nil, fragmentErr(d.URL, "comment")
	}
	body := node.Find(selCommentBody).First()
	if body.Length() == 0 {
		body = node
	}
	return fragmentFromSelection(d.URL, body, ".comment-content")
}

func (d *RemoteDocument) commentNodes() *goquery.Selection {
	return d.doc.Find(selCommentThread)
}

// resolve makes an href absolute against the document's own URL. The
// origin renders pagination and title links host-relative.
func (d *RemoteDocument) resolve(href string) string {
	base, err := url.Parse(d.URL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
