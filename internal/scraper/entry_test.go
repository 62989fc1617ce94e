package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom/storyloom-backend/internal/common"
)

const entryPage = `<html><body>
<div class="entry">
	<h3 class="entry-title">a quiet evening at the tavern</h3>
	<div class="userpic"><img src="//v.dreamwidth.org/111/222" title="amused (Default)" alt="amused (Default)"></div>
	<span class="ljuser" lj:user="winter_knight"><b>winter_knight</b></span>
	<span class="datetime">2016-04-12 03:45 pm (UTC)</span>
	<div class="entry-content"><p>The fire had burned low.</p><span class="edittime">Edited 2016-04-12 04:01 pm (UTC)</span></div>
</div>
<div id="comments"></div>
</body></html>`

func parsePage(t *testing.T, html string) *RemoteDocument {
	t.Helper()
	doc, err := NewRemoteDocument("https://musebox.dreamwidth.org/123456.html", strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSubject(t *testing.T) {
	doc := parsePage(t, entryPage)
	assert.Equal(t, "a quiet evening at the tavern", doc.Subject())
}

func TestEntryExtraction(t *testing.T) {
	doc := parsePage(t, entryPage)

	frag, err := doc.Entry()
	require.NoError(t, err)

	assert.Equal(t, "winter_knight", frag.Username)
	assert.Equal(t, "//v.dreamwidth.org/111/222", frag.IconURL)
	assert.Equal(t, "amused (Default)", frag.IconKeyword)
	assert.Equal(t, time.Date(2016, 4, 12, 15, 45, 0, 0, time.UTC), frag.PostedAt)

	// Authored content survives, the injected edit footer does not.
	assert.Contains(t, frag.Content, "The fire had burned low.")
	assert.NotContains(t, frag.Content, "Edited")
}

func TestEntryUsernameFallback(t *testing.T) {
	// Older markup without the lj:user attribute still names the author
	// in the bold text.
	html := strings.Replace(entryPage, ` lj:user="winter_knight"`, "", 1)
	doc := parsePage(t, html)

	frag, err := doc.Entry()
	require.NoError(t, err)
	assert.Equal(t, "winter_knight", frag.Username)
}

func TestEntryMalformed(t *testing.T) {
	tests := []struct {
		name  string
		strip string
		field string
	}{
		{"missing author", `<span class="ljuser" lj:user="winter_knight"><b>winter_knight</b></span>`, "author"},
		{"missing timestamp", `<span class="datetime">2016-04-12 03:45 pm (UTC)</span>`, "timestamp"},
		{"missing content", `<div class="entry-content"><p>The fire had burned low.</p><span class="edittime">Edited 2016-04-12 04:01 pm (UTC)</span></div>`, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parsePage(t, strings.Replace(entryPage, tt.strip, "", 1))

			_, err := doc.Entry()
			var malformed *common.MalformedFragmentError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestEntryWithoutIcon(t *testing.T) {
	html := strings.Replace(entryPage,
		`<div class="userpic"><img src="//v.dreamwidth.org/111/222" title="amused (Default)" alt="amused (Default)"></div>`,
		"", 1)
	doc := parsePage(t, html)

	frag, err := doc.Entry()
	require.NoError(t, err)
	assert.Empty(t, frag.IconURL)
	assert.Empty(t, frag.IconKeyword)
}

func TestCommentExtraction(t *testing.T) {
	html := `<html><body>
<div class="entry">
	<h3 class="entry-title">subject</h3>
	<span class="ljuser" lj:user="op"><b>op</b></span>
	<span class="datetime">2016-04-12 03:45 pm (UTC)</span>
	<div class="entry-content">opening</div>
</div>
<div id="comments">
	<div class="comment-thread comment-depth-1"><div class="comment">
		<h4 class="comment-title"><a href="https://musebox.dreamwidth.org/123456.html?thread=1">no subject</a></h4>
		<span class="ljuser" lj:user="rust_and_ruin"><b>rust_and_ruin</b></span>
		<span class="datetime">2016-04-12 04:02 pm (UTC)</span>
		<div class="comment-content"><p>He looked up.</p></div>
	</div></div>
</div>
</body></html>`
	doc := parsePage(t, html)

	require.Equal(t, 1, doc.CommentCount())

	frag, err := doc.Comment(0)
	require.NoError(t, err)
	assert.Equal(t, "rust_and_ruin", frag.Username)
	assert.Equal(t, "https://musebox.dreamwidth.org/123456.html?thread=1", frag.TitleLink)
	assert.Contains(t, frag.Content, "He looked up.")
	assert.Equal(t, time.Date(2016, 4, 12, 16, 2, 0, 0, time.UTC), frag.PostedAt)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2016-04-12 03:45 pm (UTC)", time.Date(2016, 4, 12, 15, 45, 0, 0, time.UTC)},
		{"2016-04-12 09:05 am (UTC)", time.Date(2016, 4, 12, 9, 5, 0, 0, time.UTC)},
		{"2016-04-12 15:04", time.Date(2016, 4, 12, 15, 4, 0, 0, time.UTC)},
		{"Jan. 2, 2006 03:04 pm", time.Date(2006, 1, 2, 15, 4, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseTimestamp("not a time")
	assert.Error(t, err)
}
