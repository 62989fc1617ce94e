package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ThreadedWindow is the number of comments the origin renders per
// threaded page before continuation links take over.
const ThreadedWindow = 25

// PageLinks returns the ordered later-page URLs of a flat-mode thread,
// taken from the explicit page-links navigation element and resolved
// against the document URL. The current page is rendered as plain text
// rather than an anchor, so it never appears in the result. Duplicate
// hrefs (the element is rendered above and below the comments) are
// collapsed, order preserved.
func PageLinks(d *RemoteDocument) []string {
	var links []string
	seen := make(map[string]bool)

	d.doc.Find(selPageLinks).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		link := d.resolve(href)
		if seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	return links
}

// CommentWindow returns how many leading comments belong to the
// document's own rendered page in threaded mode. The base window is
// ThreadedWindow; an equal-depth pair across the boundary means the
// listing did not actually break there (a threading artifact, not a new
// page), so the window extends by one and the check repeats.
func CommentWindow(d *RemoteDocument) int {
	depths := commentDepths(d)
	n := len(depths)

	i := ThreadedWindow
	for i < n && depths[i] == depths[i-1] {
		i++
	}
	if i > n {
		return n
	}
	return i
}

// Continuations returns the ordered continuation URLs of a threaded
// document. Boundaries are inferred from comment depth: starting at the
// base window, an equal-depth pair across the candidate boundary slides
// it forward by one comment; otherwise the boundary comment opens the
// next page and its title link, resolved against the document URL, is
// the continuation URL.
func Continuations(d *RemoteDocument) ([]string, error) {
	nodes := d.commentNodes()
	depths := commentDepths(d)
	n := len(depths)

	var links []string
	i := ThreadedWindow
	for i < n {
		if depths[i] == depths[i-1] {
			i++
			continue
		}

		link, ok := nodes.Eq(i).Find(selCommentTitle).First().Attr("href")
		if !ok || link == "" {
			return nil, fragmentErr(d.URL, "continuation link")
		}
		links = append(links, d.resolve(link))
		i += ThreadedWindow
	}

	return links, nil
}

// commentDepths reads the comment-depth-N class off every comment node
func commentDepths(d *RemoteDocument) []int {
	var depths []int
	d.commentNodes().Each(func(_ int, node *goquery.Selection) {
		depths = append(depths, commentDepth(node))
	})
	return depths
}

func commentDepth(node *goquery.Selection) int {
	class, _ := node.Attr("class")
	for _, c := range strings.Fields(class) {
		if rest, ok := strings.CutPrefix(c, "comment-depth-"); ok {
			if depth, err := strconv.Atoi(rest); err == nil {
				return depth
			}
		}
	}
	return 0
}
