package mcp

import "github.com/mark3labs/mcp-go/mcp"

var captureToolDef = mcp.NewTool("card_capture",
	mcp.WithDescription("Capture a clipped snippet as a new card in the current project."),
	mcp.WithString("snippet", mcp.Description("The clipped text"), mcp.Required()),
	mcp.WithString("title", mcp.Description("Page title")),
	mcp.WithString("url", mcp.Description("Page URL")),
	mcp.WithString("favicon", mcp.Description("Favicon URL")),
	mcp.WithArray("tags", mcp.Description("Tags for the card"), mcp.WithStringItems()),
	mcp.WithString("doi", mcp.Description("DOI; extracted from the snippet, URL or title when omitted")),
	mcp.WithString("project_id", mcp.Description("Target project (default: current project)")),
	mcp.WithObject("evidence", mcp.Description("Optional evidence {kind: html|image|audio, mime, data}")),
)

var getToolDef = mcp.NewTool("card_get",
	mcp.WithDescription("Get one card by id."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
	mcp.WithBoolean("include_deleted", mcp.Description("Also return cards in the trash")),
)

var listToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("List cards newest first. Defaults to the current project."),
	mcp.WithString("project_id", mcp.Description("Project to list")),
	mcp.WithBoolean("all_projects", mcp.Description("List cards from every project")),
	mcp.WithString("tag", mcp.Description("Only cards carrying this tag")),
	mcp.WithString("query", mcp.Description("Case-insensitive match on title, snippet and URL")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include cards in the trash")),
)

var updateToolDef = mcp.NewTool("card_update",
	mcp.WithDescription("Edit fields of an active card. Omitted fields are left unchanged."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("url", mcp.Description("New URL")),
	mcp.WithString("snippet", mcp.Description("New snippet; must not be empty")),
	mcp.WithArray("tags", mcp.Description("Replacement tag list"), mcp.WithStringItems()),
	mcp.WithString("doi", mcp.Description("New DOI")),
	mcp.WithString("project_id", mcp.Description("Move the card to this project")),
)

var tagToolDef = mcp.NewTool("card_tag",
	mcp.WithDescription("Add and remove tags on a card. Removal wins."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
	mcp.WithArray("add", mcp.Description("Tags to add"), mcp.WithStringItems()),
	mcp.WithArray("remove", mcp.Description("Tags to remove"), mcp.WithStringItems()),
)

var actionToolDef = mcp.NewTool("card_action",
	mcp.WithDescription("Rewrite a card's snippet with a local model and record the action badge."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
	mcp.WithString("action", mcp.Description("Action to apply"), mcp.Required(),
		mcp.Enum("summarize", "rewrite", "proofread", "translate")),
	mcp.WithString("style", mcp.Description("Rewrite style (default Concise)")),
	mcp.WithString("target", mcp.Description("Translation target language (default fr)")),
)

var trashToolDef = mcp.NewTool("card_trash",
	mcp.WithDescription("Move a card to the trash."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
)

var restoreToolDef = mcp.NewTool("card_restore",
	mcp.WithDescription("Restore a card from the trash."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
)

var trashListToolDef = mcp.NewTool("card_trash_list",
	mcp.WithDescription("List cards in the trash, most recently trashed first."),
	mcp.WithString("project_id", mcp.Description("Only this project's trash")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var purgeToolDef = mcp.NewTool("card_purge",
	mcp.WithDescription("Permanently delete one card by id, or empty the trash."),
	mcp.WithString("id", mcp.Description("Card to delete permanently, in or out of the trash")),
	mcp.WithString("project_id", mcp.Description("Only empty this project's trash")),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge cards trashed more than N days ago")),
)

var sweepToolDef = mcp.NewTool("card_sweep",
	mcp.WithDescription("Purge cards whose trash retention window has expired."),
)

var exportToolDef = mcp.NewTool("card_export",
	mcp.WithDescription("Export active cards oldest first as markdown, html or text."),
	mcp.WithString("project_id", mcp.Description("Project to export (default: current project)")),
	mcp.WithBoolean("all_projects", mcp.Description("Export every project")),
	mcp.WithString("format", mcp.Description("Output format (default md)"), mcp.Enum("md", "html", "text")),
	mcp.WithBoolean("no_citations", mcp.Description("Drop citation markers and the sources list")),
	mcp.WithBoolean("to_file", mcp.Description("Write to a file under the exports directory")),
	mcp.WithString("path", mcp.Description("Output file path; implies to_file")),
)

var projectListToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List projects with their card counts and the current project."),
)

var projectCreateToolDef = mcp.NewTool("project_create",
	mcp.WithDescription("Create a project."),
	mcp.WithString("name", mcp.Description("Project name"), mcp.Required()),
	mcp.WithBoolean("use", mcp.Description("Make it the current project")),
)

var projectRenameToolDef = mcp.NewTool("project_rename",
	mcp.WithDescription("Rename a project."),
	mcp.WithString("id", mcp.Description("Project id"), mcp.Required()),
	mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
)

var projectDeleteToolDef = mcp.NewTool("project_delete",
	mcp.WithDescription("Delete a project and all of its cards. The default project cannot be deleted."),
	mcp.WithString("id", mcp.Description("Project id"), mcp.Required()),
)

var projectUseToolDef = mcp.NewTool("project_use",
	mcp.WithDescription("Switch the current project by id or name."),
	mcp.WithString("id", mcp.Description("Project id or name"), mcp.Required()),
)

var lensGetToolDef = mcp.NewTool("lens_get",
	mcp.WithDescription("Get the literature lens of a card: its resolved work, references, citing works and similar works."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
	mcp.WithBoolean("refresh", mcp.Description("Ignore the cache and recompute")),
	mcp.WithBoolean("cached_only", mcp.Description("Only return a cached lens; never call providers")),
)

var lensSimilarToolDef = mcp.NewTool("lens_similar",
	mcp.WithDescription("Find scholarly works similar to a card. Requires hybrid mode."),
	mcp.WithString("id", mcp.Description("Card id"), mcp.Required()),
	mcp.WithNumber("limit", mcp.Description("Maximum number of works (default 5)")),
)

var lensModeGetToolDef = mcp.NewTool("lens_mode_get",
	mcp.WithDescription("Report whether network lookups are enabled (hybrid) or not (offline)."),
)

var lensModeSetToolDef = mcp.NewTool("lens_mode_set",
	mcp.WithDescription("Switch between offline and hybrid mode."),
	mcp.WithString("mode", mcp.Description("New mode"), mcp.Required(), mcp.Enum("offline", "hybrid")),
)
