package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/poll"
)

const defaultActivityLimit = 20

type CreateSessionInput struct {
	Name  string `json:"name" jsonschema:"session display name"`
	Saved bool   `json:"saved,omitempty" jsonschema:"keep the session in the saved index instead of expiring it"`
}

type SessionIDInput struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
}

type IngestPollInput struct {
	SessionID  string   `json:"session_id" jsonschema:"session to append the poll to"`
	Creator    string   `json:"creator" jsonschema:"who made the content"`
	Company    string   `json:"company,omitempty" jsonschema:"optional company or team"`
	Links      []string `json:"links" jsonschema:"media links; YouTube and Google Drive links become embeds"`
	Timer      *int     `json:"timer,omitempty" jsonschema:"voting window in seconds; 0 disables the timer"`
	ExposeThem bool     `json:"expose_them,omitempty" jsonschema:"show who voted last in results"`
}

type StartPollInput struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
	Index     int    `json:"index" jsonschema:"zero-based poll index"`
}

type AdvanceInput struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
	Requester string `json:"requester,omitempty" jsonschema:"actor name checked against the authorized list; omit when acting as host"`
}

type ResumeInput struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
	Restart   bool   `json:"restart,omitempty" jsonschema:"start again from the first poll"`
}

type PollResultsInput struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
	PollID    string `json:"poll_id" jsonschema:"poll id"`
}

type RecentActivityInput struct {
	SessionID string `json:"session_id" jsonschema:"session id"`
	PollID    string `json:"poll_id,omitempty" jsonschema:"only entries for this poll"`
	Type      string `json:"type,omitempty" jsonschema:"only entries of this type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, newest first"`
	Offset    int    `json:"offset,omitempty" jsonschema:"entries to skip"`
}

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_session",
		Description: "Create a rating session. Live sessions expire when idle; saved ones are listed by list_sessions",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateSessionInput) (*sdkmcp.CallToolResult, any, error) {
		sess, err := svc.Sessions.Create(ctx, in.Name, !in.Saved)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List saved sessions, most recently updated first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, any, error) {
		infos, err := svc.Sessions.ListSaved(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, map[string]any{"sessions": infos}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Get the full session document",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		sess, err := svc.Sessions.Get(ctx, in.SessionID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ingest_poll",
		Description: "Append a poll built from raw media links",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in IngestPollInput) (*sdkmcp.CallToolResult, any, error) {
		p, err := svc.Sessions.IngestPoll(ctx, poll.IngestRequest{
			SessionID:  in.SessionID,
			Creator:    in.Creator,
			Company:    in.Company,
			Links:      in.Links,
			Timer:      in.Timer,
			ExposeThem: in.ExposeThem,
		})
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, p, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_poll",
		Description: "Present the poll at index and open voting",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in StartPollInput) (*sdkmcp.CallToolResult, any, error) {
		sess, err := svc.Sessions.StartPoll(ctx, in.SessionID, in.Index)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "advance",
		Description: "Move to the next poll, completing the session after the last one",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AdvanceInput) (*sdkmcp.CallToolResult, any, error) {
		sess, err := svc.Sessions.Advance(ctx, in.SessionID, in.Requester)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "pause_session",
		Description: "Pause the presentation and remember the current poll",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		sess, err := svc.Sessions.Pause(ctx, in.SessionID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "resume_session",
		Description: "Resume a paused session, dropping already presented polls unless restart is set",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ResumeInput) (*sdkmcp.CallToolResult, any, error) {
		sess, err := svc.Sessions.Resume(ctx, in.SessionID, in.Restart)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, sess, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_results",
		Description: "Get vote totals, average and per-voter breakdown for a poll",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in PollResultsInput) (*sdkmcp.CallToolResult, any, error) {
		res, err := svc.Sessions.Results(ctx, in.SessionID, in.PollID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, res, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_top10",
		Description: "Get the session leaderboard and top creators",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		board, err := svc.Sessions.Top10(ctx, in.SessionID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, board, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_ready_status",
		Description: "Get waiting room counts and countdown state",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		status, err := svc.Sessions.ReadyStatus(ctx, in.SessionID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, status, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_feedback_digest",
		Description: "Get all feedback as a plain-text digest",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		digest, err := svc.Sessions.FeedbackDigest(ctx, in.SessionID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: digest}},
		}, nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "Get recent session events such as started and finalized polls",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityInput) (*sdkmcp.CallToolResult, any, error) {
		opts := activity.ListActivityOptions{
			SessionID: in.SessionID,
			Limit:     in.Limit,
			Offset:    in.Offset,
		}
		if opts.Limit <= 0 {
			opts.Limit = defaultActivityLimit
		}
		if in.PollID != "" {
			opts.PollID = &in.PollID
		}
		if in.Type != "" {
			kind := activity.ActivityType(in.Type)
			opts.ActivityType = &kind
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, map[string]any{"entries": entries}, nil
	})
}
