package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
)

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Create(ctx context.Context, name string, isLive bool) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	ListSaved(ctx context.Context) ([]session.SessionInfo, error)
	IngestPoll(ctx context.Context, req poll.IngestRequest) (*poll.Poll, error)
	StartPoll(ctx context.Context, id string, index int) (*session.Session, error)
	Advance(ctx context.Context, id, requester string) (*session.Session, error)
	Pause(ctx context.Context, id string) (*session.Session, error)
	Resume(ctx context.Context, id string, restart bool) (*session.Session, error)
	Results(ctx context.Context, id, pollID string) (ledger.Result, error)
	Top10(ctx context.Context, id string) (ledger.Leaderboard, error)
	ReadyStatus(ctx context.Context, id string) (session.ReadyStatus, error)
	FeedbackDigest(ctx context.Context, id string) (string, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions SessionService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Verifier      TokenVerifier
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "rateroom",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local host console and always runs without auth.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware())
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Verifier))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
