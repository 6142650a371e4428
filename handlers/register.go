// ABOUTME: Registers the leadbook tools on an MCP server
// ABOUTME: Shared by the mcp subcommand and the handler tests
package handlers

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Register adds every contact tool to server.
func Register(server *mcp.Server, h *ContactHandlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts",
		Description: "List leads from every source merged into one stream, newest first, with optional filters",
	}, h.ListContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "contact_stats",
		Description: "Aggregate counts, engagement rates and totals over the filtered lead view",
	}, h.ContactStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_contacts",
		Description: "Export the filtered lead view as CSV with per-email occurrence aggregates",
	}, h.ExportContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update one lead by composite key; the change is visible immediately and reverted if the datastore rejects it",
	}, h.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_update_contacts",
		Description: "Apply the same change to many leads; reports partial success per contact",
	}, h.BulkUpdateContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Soft-delete one lead by composite key",
	}, h.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recent_activity",
		Description: "Show recent mutations made by this server, newest first, including rolled back ones",
	}, h.RecentActivity)
}
