package feed

import (
	"testing"

	"github.com/lysyi3m/rss-retitle/app/rules"
)

func TestPreviewerRun(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Releases</title>
    <link>https://example.com</link>
    <description>Test</description>
    <item>
      <title><![CDATA[[fansub][名侦探柯南][第1170集 食人教室的玄机（后篇）][WEBRIP][简繁日多语MKV][PGS][1080P]]]></title>
      <guid>item-1</guid>
    </item>
    <item>
      <title>Unrelated release</title>
      <link>https://example.com/2</link>
    </item>
  </channel>
</rss>`

	preview, err := NewPreviewer().Run([]byte(rssData), rules.NewDefaultSet())
	if err != nil {
		t.Fatal(err)
	}

	if preview.FeedTitle != "Releases" {
		t.Errorf("Expected feed title 'Releases', got '%s'", preview.FeedTitle)
	}
	if len(preview.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(preview.Items))
	}
	if preview.Matched != 1 {
		t.Errorf("Expected 1 matched title, got %d", preview.Matched)
	}

	first := preview.Items[0]
	if !first.Matched || first.Rule != "Detective Conan" {
		t.Errorf("Expected first item matched by 'Detective Conan', got matched=%v rule='%s'", first.Matched, first.Rule)
	}
	if first.Converted != " [fansub] Detective Conan - 1170 (WEBRIP 1080P 简繁日多语MKV) " {
		t.Errorf("Unexpected converted title '%s'", first.Converted)
	}
	if first.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got '%s'", first.GUID)
	}

	second := preview.Items[1]
	if second.Matched {
		t.Error("Expected second item not to match")
	}
	if second.Converted != "Unrelated release" {
		t.Errorf("Expected unchanged title, got '%s'", second.Converted)
	}
	if second.GUID != "https://example.com/2" {
		t.Errorf("Expected GUID to fall back to link, got '%s'", second.GUID)
	}
}

func TestPreviewerInvalidFeed(t *testing.T) {
	_, err := NewPreviewer().Run([]byte(`<html><body>This is not a feed</body></html>`), rules.NewDefaultSet())
	if err == nil {
		t.Error("Expected error for invalid feed data")
	}
}
