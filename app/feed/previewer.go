package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// TitleApplier reports how a title would be rewritten.
type TitleApplier interface {
	Apply(title string) (converted string, rule string, matched bool)
}

type TitlePreview struct {
	GUID      string `json:"guid"`
	Original  string `json:"original"`
	Converted string `json:"converted"`
	Rule      string `json:"rule,omitempty"`
	Matched   bool   `json:"matched"`
}

type Preview struct {
	FeedTitle string         `json:"feed_title"`
	Items     []TitlePreview `json:"items"`
	Matched   int            `json:"matched"`
}

// Previewer parses a feed and lists the effect of the rule set on each item title
// without producing a rewritten document.
type Previewer struct {
	gofeedParser *gofeed.Parser
}

func NewPreviewer() *Previewer {
	return &Previewer{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Previewer) Run(data []byte, applier TitleApplier) (*Preview, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	preview := &Preview{
		FeedTitle: feed.Title,
		Items:     make([]TitlePreview, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		converted, rule, matched := applier.Apply(item.Title)
		if matched {
			preview.Matched++
		}

		preview.Items = append(preview.Items, TitlePreview{
			GUID:      cmp.Or(item.GUID, item.Link),
			Original:  item.Title,
			Converted: converted,
			Rule:      rule,
			Matched:   matched,
		})
	}

	return preview, nil
}
