// schedagent-mcp exposes the scheduling tools over MCP stdio, so MCP-capable
// clients can use the same schedule store the daemon serves.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/weihung/schedagent/internal/agent"
	"github.com/weihung/schedagent/internal/config"
	"github.com/weihung/schedagent/internal/schedule"
	"github.com/weihung/schedagent/internal/store"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[schedagent-mcp] ")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "schedagent.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open %s: %v", cfg.DBPath, err)
	}
	defer db.Close()

	// Tool calls arriving over stdio all act as one local user.
	userID := os.Getenv("SCHEDAGENT_USER_ID")
	if userID == "" {
		userID = "mcp"
	}

	schedules := schedule.NewService(store.NewScheduleStore(db), nil)
	dispatcher := agent.NewDispatcher(schedules, cfg.Location())

	s := server.NewMCPServer(
		"schedagent-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	for _, spec := range agent.ToolSpecs() {
		s.AddTool(buildTool(spec), toolHandler(dispatcher, userID, spec.Name))
	}

	log.Println("Starting MCP server on stdio...")
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// buildTool renders one tool declaration in MCP form.
func buildTool(spec agent.ToolSpec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}

	// Deterministic argument order keeps the schema stable across runs.
	names := make([]string, 0, len(spec.Properties))
	for name := range spec.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		prop := spec.Properties[name]
		var propOpts []mcp.PropertyOption
		if slices.Contains(spec.Required, name) {
			propOpts = append(propOpts, mcp.Required())
		}
		propOpts = append(propOpts, mcp.Description(prop.Description))

		switch prop.Type {
		case "boolean":
			opts = append(opts, mcp.WithBoolean(name, propOpts...))
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(name, propOpts...))
		}
	}

	return mcp.NewTool(spec.Name, opts...)
}

func toolHandler(d *agent.Dispatcher, userID, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)

		result := d.Execute(ctx, userID, name, args)
		payload, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
		}

		if ok, _ := result["success"].(bool); !ok {
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
