// Package opml implements import and export of a subscription list in
// OPML 1.0, the supplemental Control Surface feature carried over
// from the teacher (internal/opml/handler.go), adapted to this
// backend's flat Feed model (no category hierarchy).
package opml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"feedreader/internal/models"
)

type opmlDoc struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head     `xml:"head"`
	Body    body     `xml:"body"`
}

type head struct {
	Title string `xml:"title"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text    string    `xml:"text,attr"`
	Title   string    `xml:"title,attr"`
	Type    string    `xml:"type,attr"`
	XMLURL  string    `xml:"xmlUrl,attr"`
	HTMLURL string    `xml:"htmlUrl,attr,omitempty"`
	Nested  []outline `xml:"outline"`
}

// Parse reads an OPML document and returns the feeds it names as
// create requests, flattening any folder nesting since this backend
// has no feed-category concept.
func Parse(r io.Reader) ([]models.CreateFeedRequest, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, errors.New("opml: empty document")
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	var doc opmlDoc
	if err := xml.NewDecoder(bytes.NewReader(content)).Decode(&doc); err != nil {
		return nil, err
	}

	var feeds []models.CreateFeedRequest
	var walk func([]outline)
	walk = func(outlines []outline) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				title := o.Title
				if title == "" {
					title = o.Text
				}
				feeds = append(feeds, models.CreateFeedRequest{URL: o.XMLURL, Title: &title})
			}
			if len(o.Nested) > 0 {
				walk(o.Nested)
			}
		}
	}
	walk(doc.Body.Outlines)
	return feeds, nil
}

// Generate renders a feed list as an OPML 1.0 document.
func Generate(feeds []models.Feed) ([]byte, error) {
	doc := opmlDoc{
		Version: "1.0",
		Head:    head{Title: "Feed Subscriptions"},
	}

	for _, f := range feeds {
		title := f.URL
		if f.Title != nil && *f.Title != "" {
			title = *f.Title
		}
		doc.Body.Outlines = append(doc.Body.Outlines, outline{
			Text:   title,
			Title:  title,
			Type:   "rss",
			XMLURL: f.URL,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
