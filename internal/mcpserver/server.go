// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the post generator to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/artifacts"
	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/pipeline"
)

// ContractURI is the resource URI of the artifact format description.
const ContractURI = "seopress://artifact-format"

// Server wraps the MCP server with seopress tools.
type Server struct {
	mcp          *server.MCPServer
	pipeline     *pipeline.Pipeline
	store        *artifacts.Store
	dailyKeyword string
}

// New creates a new MCP server with all tools registered.
func New(p *pipeline.Pipeline, store *artifacts.Store, dailyKeyword string) *Server {
	s := &Server{pipeline: p, store: store, dailyKeyword: dailyKeyword}

	s.mcp = server.NewMCPServer(
		"seopress",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_post",
		mcp.WithDescription("Generate an affiliate blog post for a keyword. "+
			"Returns title, meta description, source (ai or fallback) and the rendered HTML. "+
			"With save=true the post is stored as a manual artifact."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Target keyword, e.g. \"wireless earbuds\"")),
		mcp.WithBoolean("save", mcp.Description("Persist the post (default false)")),
	), s.generatePost)

	s.mcp.AddTool(mcp.NewTool("run_daily",
		mcp.WithDescription("Ensure today's daily post exists. Idempotent: a second call on the "+
			"same day returns the existing artifact with created=false."),
		mcp.WithString("keyword", mcp.Description("Keyword override (defaults to the configured daily keyword)")),
	), s.runDaily)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List saved posts, newest first."),
		mcp.WithString("trigger", mcp.Description("Optional filter"), mcp.Enum("manual", "daily")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Read a saved post by id, including its full HTML. "+
			"See the "+ContractURI+" resource for the id scheme."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Artifact id, e.g. daily-wireless-earbuds-83f9aa89-20261019")),
	), s.getPost)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Artifact Format",
			mcp.WithResourceDescription("How saved posts are identified and stored."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) generatePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kw, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.pipeline.Generate(ctx, kw, req.GetBool("save", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := map[string]any{
		"keyword":          res.Keyword,
		"title":            res.Content.Title,
		"meta_description": res.Content.MetaDescription,
		"source":           res.Source,
		"reason":           res.Reason,
		"word_count":       res.Content.WordCount,
		"tags":             res.Content.Tags,
		"html":             res.HTML,
	}
	if res.Artifact != nil {
		out["artifact"] = res.Artifact.Summary()
	}
	return jsonResult(out)
}

func (s *Server) runDaily(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kw := req.GetString("keyword", "")
	if kw == "" {
		kw = s.dailyKeyword
	}
	a, created, err := s.pipeline.RunDaily(ctx, kw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"created": created, "artifact": a.Summary()})
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	trigger := models.Trigger(req.GetString("trigger", ""))
	if trigger != "" && !trigger.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown trigger %q", trigger)), nil
	}
	items, err := s.store.List(ctx, index.Filter{Trigger: trigger})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(a)
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     ArtifactFormatContract,
		},
	}, nil
}
