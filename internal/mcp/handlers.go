package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/nvandessel/lvlup/internal/models"
	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/nvandessel/lvlup/internal/ratelimit"
	"github.com/nvandessel/lvlup/internal/sanitize"
)

// Tool and resource names.
const (
	toolUpdate       = "lvlup_update"
	toolStats        = "lvlup_stats"
	toolHistory      = "lvlup_history"
	statsResourceURI = "lvlup://stats"
)

// registerTools registers all lvlup MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolUpdate,
		Description: "Add or subtract progress on a stat. Reaching the stat's threshold levels it up.",
	}, s.handleUpdate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolStats,
		Description: "Get every stat (value, current_max, base_max, level) and the total level",
	}, s.handleStats)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        toolHistory,
		Description: "Get change log lines for a time range (week, month, half_year, year, all)",
	}, s.handleHistory)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         statsResourceURI,
		Name:        "lvlup-stats",
		Description: "Current stat levels as a markdown table.",
		MIMEType:    "text/markdown",
	}, s.handleStatsResource)
}

// handleUpdate implements the lvlup_update tool.
func (s *Server) handleUpdate(ctx context.Context, req *sdk.CallToolRequest, args UpdateInput) (_ *sdk.CallToolResult, _ UpdateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(toolUpdate, start, retErr, map[string]string{
			"category": args.Category,
			"stat":     args.Stat,
			"change":   strconv.Itoa(args.Change),
		})
	}()

	if err := s.limits.Check(ratelimit.OpUpdate); err != nil {
		return nil, UpdateOutput{}, err
	}

	change := args.Change
	ureq := progression.UpdateRequest{
		Category: args.Category,
		Stat:     args.Stat,
		Change:   &change,
		Date:     args.Date,
	}
	if err := ureq.Validate(); err != nil {
		return nil, UpdateOutput{}, err
	}

	res, err := s.engine.ApplyDelta(ctx, ureq.Mutation(s.engine.Now(), "mcp"))
	if errors.Is(err, progression.ErrUnknownTarget) {
		return nil, UpdateOutput{
			Success: false,
			Message: fmt.Sprintf("No stat %q in category %q", args.Stat, args.Category),
		}, nil
	}
	if err != nil {
		return nil, UpdateOutput{}, fmt.Errorf("failed to update stat: %w", err)
	}

	msg := fmt.Sprintf("%s/%s is at %d/%d, level %d", res.Category, res.Stat, res.Value, res.CurrentMax, res.Level)
	if res.LeveledUp {
		msg = fmt.Sprintf("Level up! %s/%s reached level %d (%d/%d)", res.Category, res.Stat, res.Level, res.Value, res.CurrentMax)
	}

	return nil, UpdateOutput{
		Success:    true,
		Value:      res.Value,
		CurrentMax: res.CurrentMax,
		Level:      res.Level,
		LevelUp:    res.LeveledUp,
		TotalLevel: res.TotalLevel,
		Message:    msg,
	}, nil
}

// handleStats implements the lvlup_stats tool.
func (s *Server) handleStats(ctx context.Context, req *sdk.CallToolRequest, args StatsInput) (_ *sdk.CallToolResult, _ StatsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(toolStats, start, retErr, map[string]string{"category": args.Category})
	}()

	if err := s.limits.Check(ratelimit.OpStats); err != nil {
		return nil, StatsOutput{}, err
	}

	snap, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, StatsOutput{}, fmt.Errorf("failed to load stats: %w", err)
	}

	categories := snap.Categories
	if args.Category != "" {
		cat, ok := snap.Categories[args.Category]
		if !ok {
			return nil, StatsOutput{}, fmt.Errorf("%w: category %q", progression.ErrUnknownTarget, args.Category)
		}
		categories = map[string]models.Category{args.Category: cat}
	}

	return nil, StatsOutput{
		Categories: categories,
		TotalLevel: snap.TotalLevel,
	}, nil
}

// handleHistory implements the lvlup_history tool.
func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	rng := changelog.ParseRange(args.Range)
	defer func() {
		s.auditTool(toolHistory, start, retErr, map[string]string{"range": rng.String()})
	}()

	if err := s.limits.Check(ratelimit.OpHistory); err != nil {
		return nil, HistoryOutput{}, err
	}

	res, err := s.engine.History(ctx, rng)
	if errors.Is(err, changelog.ErrLogUnavailable) {
		return nil, HistoryOutput{
			Success: false,
			Range:   rng.String(),
			Logs:    []string{},
			Error:   err.Error(),
		}, nil
	}
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to read history: %w", err)
	}

	logs := res.Lines()
	for i, line := range logs {
		logs[i] = sanitize.Line(line)
	}
	return nil, HistoryOutput{
		Success: true,
		Range:   rng.String(),
		Count:   len(logs),
		Logs:    logs,
		Skipped: len(res.Skipped),
	}, nil
}

// handleStatsResource renders the snapshot as a markdown table.
func (s *Server) handleStatsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	snap, err := s.engine.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      statsResourceURI,
				MIMEType: "text/markdown",
				Text:     formatStatsMarkdown(snap),
			},
		},
	}, nil
}

func formatStatsMarkdown(snap *models.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("# Stats\n\n")
	sb.WriteString("| Category | Stat | Level | Progress |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, catName := range snap.CategoryNames() {
		for _, statName := range snap.StatNames(catName) {
			st, _ := snap.Lookup(catName, statName)
			fmt.Fprintf(&sb, "| %s | %s | %d | %d/%d |\n",
				sanitize.TableCell(catName), sanitize.TableCell(statName), st.Level, st.Value, st.CurrentMax)
		}
	}
	fmt.Fprintf(&sb, "\n*Total level: %d*\n", snap.TotalLevel)
	return sb.String()
}
