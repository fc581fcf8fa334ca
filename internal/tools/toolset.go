package tools

import (
	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/cache"
	"github.com/ppiankov/veridex/internal/model"
	"github.com/ppiankov/veridex/internal/util"
	"github.com/ppiankov/veridex/internal/worker"
)

// NewToolset assembles the research tools in priority order. Keyed
// backends register only when their credential is configured; DuckDuckGo,
// Wikipedia, page fetching, and entity lookup are always available, so
// the toolset is never empty.
func NewToolset(cfg model.ToolsConfig, robots *util.RobotsChecker, limiter *worker.Limiter, c cache.Cache, logger *zap.Logger) []Tool {
	logger = logger.Named("tools")

	var toolset []Tool
	if cfg.SearxURL != "" {
		toolset = append(toolset, NewSearxTool(cfg.SearxURL, cfg.UserAgent, cfg.SearchMaxResults, cfg.FetchTimeout, logger))
	}
	if cfg.SerperAPIKey != "" {
		toolset = append(toolset, NewSerperTool(cfg.SerperAPIKey, cfg.SearchMaxResults, cfg.FetchTimeout, logger))
	}
	if cfg.BraveAPIKey != "" {
		toolset = append(toolset, NewBraveTool(cfg.BraveAPIKey, cfg.SearchMaxResults, cfg.FetchTimeout, logger))
	}
	toolset = append(toolset,
		NewDuckDuckGoTool(cfg.UserAgent, cfg.SearchMaxResults, cfg.FetchTimeout, logger),
		NewWikipediaTool(cfg.UserAgent, cfg.FetchTimeout, logger),
	)
	if cfg.NewsAPIKey != "" {
		toolset = append(toolset, NewNewsTool(cfg.NewsAPIKey, cfg.SearchMaxResults, cfg.FetchTimeout, logger))
	}
	toolset = append(toolset,
		NewPageFetchTool(robots, limiter, cfg.UserAgent, cfg.MaxPageContent, cfg.FetchTimeout, logger),
		NewWikidataTool(c, cfg.UserAgent, cfg.FetchTimeout, logger),
	)

	names := make([]string, len(toolset))
	for i, t := range toolset {
		names[i] = t.Name()
	}
	logger.Info("toolset assembled", zap.Strings("tools", names))

	return toolset
}

// ByName indexes a toolset for dispatch
func ByName(toolset []Tool) map[string]Tool {
	byName := make(map[string]Tool, len(toolset))
	for _, t := range toolset {
		byName[t.Name()] = t
	}
	return byName
}
