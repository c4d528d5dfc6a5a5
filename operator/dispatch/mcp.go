package dispatch

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spance/android-operator/utils"
)

// Register exposes the dispatcher's catalog on an MCP server. Every tool
// call funnels through Dispatch, so schema validation and error
// normalization apply uniformly regardless of transport.
func Register(srv *server.MCPServer, d *Dispatcher) {
	for _, tool := range d.Tools() {
		srv.AddTool(toMCPTool(tool), makeHandler(d, tool.Name))
	}
}

func toMCPTool(t *Tool) mcp.Tool {
	properties := make(map[string]any, len(t.Params))
	var required []string
	for _, p := range t.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func makeHandler(d *Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := d.Dispatch(ctx, name, req.GetArguments())
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: utils.JsonIndent(result),
				},
			},
			IsError: !result.Success,
		}, nil
	}
}
