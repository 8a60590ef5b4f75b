package feed_test

import (
	"testing"

	ff "feedreader/internal/feed"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test RSS Feed</title>
<description>A feed for tests</description>
<item>
<title>Test Article</title>
<link>https://example.com/article1</link>
<description>Body</description>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>
</channel>
</rss>`

func TestParse_RSS(t *testing.T) {
	feed, err := ff.Parse([]byte(rssSample))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if feed.Title != "Test RSS Feed" {
		t.Errorf("Title = %q, want %q", feed.Title, "Test RSS Feed")
	}
	if len(feed.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(feed.Entries))
	}
	entry := feed.Entries[0]
	if entry.Title == nil || *entry.Title != "Test Article" {
		t.Errorf("entry title = %v, want Test Article", entry.Title)
	}
	if entry.Link == nil || *entry.Link != "https://example.com/article1" {
		t.Errorf("entry link = %v, want https://example.com/article1", entry.Link)
	}
	if entry.Published == nil {
		t.Error("expected a parsed publish date")
	}
}

func TestParse_JSONFeedRejected(t *testing.T) {
	_, err := ff.Parse([]byte(`{"version": "https://jsonfeed.org/version/1.1", "title": "x"}`))
	if err == nil {
		t.Fatal("expected JSON feed to be rejected")
	}
	if err.Type != ff.ErrorTypeParse {
		t.Errorf("expected ErrorTypeParse, got %v", err.Type)
	}
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := ff.Parse([]byte("not xml at all"))
	if err == nil {
		t.Fatal("expected a parse error for malformed input")
	}
	if err.Type != ff.ErrorTypeParse {
		t.Errorf("expected ErrorTypeParse, got %v", err.Type)
	}
}

func TestParse_MissingTitleDefaultsToUntitled(t *testing.T) {
	const noTitle = `<?xml version="1.0"?>
<rss version="2.0"><channel><description>d</description></channel></rss>`
	feed, err := ff.Parse([]byte(noTitle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Title != "Untitled Feed" {
		t.Errorf("Title = %q, want Untitled Feed", feed.Title)
	}
}
