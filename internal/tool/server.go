package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-probe/internal/config"
)

// NewServer creates an MCP server exposing the probe's discovery and fetch.
// base supplies defaults for every find_messages call.
func NewServer(base config.Search, finder finder, svc getMessageSvc, cnv htmlConverter, parser expenseParser) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-probe", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_messages",
		Description: "Find messages from a sender within a day range, filtering locally when the token cannot search",
	}, NewFindMessages(base, finder, svc).FindMessages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_message",
		Description: "Get one message, optionally with a partial response projection, and report its size",
	}, NewGetMessage(svc, cnv, parser).GetMessage)

	return server
}
