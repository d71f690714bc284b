package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/shizuku/internal/insights"
	"github.com/kalambet/shizuku/internal/journal"
	"github.com/kalambet/shizuku/internal/profile"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Journal *journal.Service
	Profile *profile.Manager
}

// NewMCPServer creates an MCP server exposing the journal to agent hosts.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"shizuku",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("shizuku: a local mindfulness journal with AI analysis and mood trends."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("add_entry",
			mcp.WithDescription("Create a new journal entry. Analysis (summary, emotion labels, tags) runs in the background."),
			mcp.WithString("body", mcp.Description("What happened"), mcp.Required()),
			mcp.WithString("emotion", mcp.Description("How it felt")),
			mcp.WithString("action", mcp.Description("What the user did")),
			mcp.WithString("thought", mcp.Description("What the user thought")),
		),
		mcpAddEntry(deps),
	)

	s.AddTool(
		mcp.NewTool("list_entries",
			mcp.WithDescription("List recent journal entries, newest first, as JSON."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpListEntries(deps),
	)

	s.AddTool(
		mcp.NewTool("mood_trend",
			mcp.WithDescription("Return the cumulative mood trend over the last 30 days as JSON."),
		),
		mcpMoodTrend(deps),
	)

	s.AddTool(
		mcp.NewTool("set_profile",
			mcp.WithDescription("Update a user profile field (name, bio, values, interests, goals)."),
			mcp.WithString("key", mcp.Description("Profile field key"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to set"), mcp.Required()),
		),
		mcpSetProfile(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current user profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"journal://recent",
			"Recent Entries",
			mcp.WithResourceDescription("Last 10 journal entries (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpAddEntry(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := req.RequireString("body")
		if err != nil {
			return mcpError("body is required"), nil
		}

		entry, err := deps.Journal.Create(journal.NewEntryInput{
			Body:    body,
			Emotion: req.GetString("emotion", ""),
			Action:  req.GetString("action", ""),
			Thought: req.GetString("thought", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save entry: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Stored journal entry %s", entry.ID)), nil
	}
}

func mcpListEntries(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		entries, err := deps.Journal.List(limit, 0)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list entries: %v", err)), nil
		}
		if len(entries) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal entries: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpMoodTrend(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := deps.Journal.List(0, 0)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list entries: %v", err)), nil
		}

		trend := insights.ComputeTrend(entries, time.Now())
		b, err := json.Marshal(trend)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal trend: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		if err := deps.Profile.SetField(key, value); err != nil {
			return mcpError(fmt.Sprintf("failed to set profile field: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Set %s = %s", key, value)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profile.GetProfile()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := deps.Journal.List(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list entries: %w", err)
		}

		type entrySummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Summary   string `json:"summary"`
		}

		summaries := make([]entrySummary, len(entries))
		for i, e := range entries {
			summary := e.Summary
			if summary == "" {
				summary = e.Body
			}
			if utf8.RuneCountInString(summary) > 200 {
				runes := []rune(summary)
				summary = string(runes[:200]) + "..."
			}
			summaries[i] = entrySummary{
				ID:        e.ID,
				CreatedAt: e.CreatedAt.Format(time.RFC3339),
				Summary:   summary,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
