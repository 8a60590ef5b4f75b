package feed

import (
	"strings"

	"github.com/mmcdole/gofeed"
)

// Parse is the Parser contract (SPEC_FULL.md §6 / spec.md §4.1): a
// pure, side-effect-free mapping from bytes to a ParsedFeed or a
// ParseError. It autodetects RSS 2.0 and Atom 1.0 via gofeed, the
// same library the teacher uses for every other feed-parsing path in
// this codebase.
//
// JSON feeds are not handled here — fetchSingle short-circuits before
// reaching the parser (spec.md §4.1, §4.4) — but Parse defends against
// being called directly with a JSON payload anyway, since it is an
// exported, pure function callers may invoke on arbitrary bytes.
func Parse(data []byte) (*ParsedFeed, *FetchError) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return nil, parseError("JSON feeds not yet supported")
	}

	fp := gofeed.NewParser()
	gf, err := fp.ParseString(trimmed)
	if err != nil {
		return nil, parseError(err.Error())
	}

	return fromGofeed(gf), nil
}

func fromGofeed(gf *gofeed.Feed) *ParsedFeed {
	title := strings.TrimSpace(gf.Title)
	if title == "" {
		title = "Untitled Feed"
	}

	out := &ParsedFeed{
		Title:   title,
		Entries: make([]ParsedEntry, 0, len(gf.Items)),
	}

	if gf.Description != "" {
		d := gf.Description
		out.Description = &d
	}
	if gf.Link != "" {
		u := gf.Link
		out.URL = &u
	}

	for _, item := range gf.Items {
		if item == nil {
			continue
		}
		out.Entries = append(out.Entries, fromGofeedItem(item))
	}

	return out
}

func fromGofeedItem(item *gofeed.Item) ParsedEntry {
	var entry ParsedEntry

	if item.Title != "" {
		t := item.Title
		entry.Title = &t
	}
	if item.Description != "" {
		d := item.Description
		entry.Description = &d
	}
	if item.Link != "" {
		l := item.Link
		entry.Link = &l
	}
	if item.Content != "" {
		c := item.Content
		entry.Content = &c
	}
	if item.PublishedParsed != nil {
		p := item.PublishedParsed.UTC().Format(rfc3339)
		entry.Published = &p
	}

	return entry
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"
