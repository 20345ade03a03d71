package api

import (
	"context"

	"github.com/lysyi3m/rss-retitle/app/database"
	"github.com/lysyi3m/rss-retitle/app/feed"
	"github.com/lysyi3m/rss-retitle/app/rewrite"
	"github.com/lysyi3m/rss-retitle/app/rules"
)

type FetcherInterface interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

type RewriterInterface interface {
	Run(data []byte, converter rewrite.TitleConverter) (string, error)
}

type PreviewerInterface interface {
	Run(data []byte, applier feed.TitleApplier) (*feed.Preview, error)
}

type RegistryInterface interface {
	Current() *rules.Set
	Reload(ctx context.Context) (*rules.Set, error)
}

// RuleStore is the writable subset of the rule repository.
type RuleStore interface {
	ListRules(ctx context.Context) ([]database.StoredRule, error)
	CreateRule(ctx context.Context, rule rules.Rule) (int64, error)
	DeleteRule(ctx context.Context, id int64) error
	SetRuleEnabled(ctx context.Context, id int64, enabled bool) error
}

var (
	_ FetcherInterface   = (*feed.Fetcher)(nil)
	_ RewriterInterface  = (*rewrite.Rewriter)(nil)
	_ PreviewerInterface = (*feed.Previewer)(nil)
	_ RegistryInterface  = (*rules.Registry)(nil)
	_ RuleStore          = (*database.SQLRuleRepository)(nil)
)

type Options struct {
	SourceURL       string
	PartialOnError  bool
	DefaultPriority uint32
	Version         string
}

type Handler struct {
	fetcher   FetcherInterface
	rewriter  RewriterInterface
	previewer PreviewerInterface
	registry  RegistryInterface
	store     RuleStore
	opts      Options
}

type createRuleRequest struct {
	Name        string  `json:"name" binding:"required"`
	Pattern     string  `json:"pattern" binding:"required"`
	Replacement string  `json:"replacement"`
	Priority    *uint32 `json:"priority"`
}

type updateRuleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
