package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `rateroom runs live rating sessions: a host presents polls one at a time and the audience rates each on a 0-10 scale.

Core concepts:
- Session: one presentation. Live sessions expire after an idle period; saved sessions are kept and listed.
- Poll: one piece of content (creator, optional company, media items, timer in seconds).
- Voter: an audience member registered by display name. Each voter has at most one rating per poll.
- Ready room: the pre-show waiting area. The countdown may start once 80% of expected attendance is ready.
- Expose: a group vote to reveal who has not voted on a poll. It fires at half of expected attendance, rounded up.

Typical automation flow:
1) create_session, then ingest_poll once per submission (raw links are classified for you).
2) start_poll with index 0 when the show begins.
3) advance after each poll. Pass requester when acting as an allow-listed bot.
4) get_top10 and get_feedback_digest after the last poll.

Docs:
- rateroom://docs/index
- rateroom://docs/lifecycle
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "rateroom://docs/index",
		Name:        "docs_index",
		Title:       "rateroom docs index",
		Description: "What the tools do and which to call when.",
		Content: `# rateroom tools

| Tool | Use |
| --- | --- |
| create_session | New live session (set saved=true to keep it) |
| list_sessions | Saved sessions, newest first |
| get_session | Full document including polls, votes and voters |
| ingest_poll | Append a poll from raw links |
| start_poll | Present a poll by index |
| advance | Next poll, or complete after the last |
| pause_session / resume_session | Break in the show |
| get_results | Totals for one poll |
| get_top10 | Leaderboard |
| get_ready_status | Waiting room counts |
| get_feedback_digest | Feedback as text |
| get_recent_activity | Event log |

## Link handling

YouTube watch, youtu.be, shorts, embed and live links become YouTube embeds.
Google Drive file and open links become Drive previews. Both are videos.
Other links are typed by extension (.mp4, .webm, .mov are video) and default to image.
`,
	},
	{
		URI:         "rateroom://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Session lifecycle",
		Description: "Statuses, pause and resume semantics, and timers.",
		Content: `# Session lifecycle

Statuses: draft, presenting, paused, completed.

- start_poll sets presenting and stamps the poll start time.
- advance clears skip requests and expose votes, then starts the next poll.
  After the last poll the session is completed.
- pause_session remembers the current poll index.
- resume_session continues presenting. Votes for the remembered poll and
  every later poll are discarded so they are voted again; earlier results
  stay. With restart=true every vote is discarded and the session returns
  to draft.

## Timers

A poll timer is the voting window in seconds. Zero means untimed.
Votes after the window closes are rejected. In auto-advance mode the timer
is ignored until the ready-room countdown has started.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
