// Package mcp exposes the tools of a Model Context Protocol server as
// ordinary unison tools, so agents can call them with the same textual
// call syntax and validation as local tools.
package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const initTimeout = 10 * time.Second

// Client wraps an mcp-go client with the two operations adapters need.
type Client struct {
	mcpClient client.MCPClient
}

// NewClient wraps an already initialized MCP client.
func NewClient(c client.MCPClient) *Client {
	return &Client{mcpClient: c}
}

// NewStdioClient starts command as an MCP server subprocess and performs the
// protocol handshake.
func NewStdioClient(ctx context.Context, command string, env []string, args ...string) (*Client, error) {
	stdioClient, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, err
	}

	if err := stdioClient.Start(ctx); err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "unison",
		Version: "0.1.0",
	}

	if _, err := stdioClient.Initialize(initCtx, initRequest); err != nil {
		_ = stdioClient.Close()
		return nil, err
	}

	return NewClient(stdioClient), nil
}

// ListTools retrieves the tools available on the server.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	resp, err := c.mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("mcp list tools: empty response")
	}
	return resp.Tools, nil
}

// CallTool executes a tool on the server.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.mcpClient.CallTool(ctx, req)
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.mcpClient.Close()
}
