// internal/app/system/auditlog/logger.go

// Package auditlog records security-relevant events to MongoDB and the
// structured log, as configured per category.
package auditlog

import (
	"context"
	"net/http"

	"github.com/loftwork/loftwork/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, register, federated login).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Workspace controls logging for workspace events (lifecycle, membership, invites).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Workspace string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// NewNopLogger returns a Logger that discards every event. Handler tests
// use it when audit output is not under test.
func NewNopLogger() *Logger {
	return &Logger{
		zapLog: zap.NewNop(),
		config: Config{Auth: "off", Workspace: "off"},
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.WorkspaceID != nil {
		fields = append(fields, zap.String("workspace_id", event.WorkspaceID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryWorkspace:
		setting = l.config.Workspace
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication events ---

// LoginSuccess logs a successful credential login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a rejected credential login. The stored event does not
// distinguish unknown-account from wrong-password, matching the opaque
// error the client receives.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "invalid credentials",
		Details:       map[string]string{"attempted_email": email},
	})
}

// LoginRateLimited logs a login attempt rejected by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"attempted_email": email},
	})
}

// Register logs a new account registration.
func (l *Logger) Register(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegister,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// FederatedLogin logs a completed federated sign-in.
func (l *Logger) FederatedLogin(ctx context.Context, r *http.Request, userID primitive.ObjectID, provider string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventFederatedLogin,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"provider": provider},
	})
}

// --- Workspace events ---

// WorkspaceCreated logs workspace creation.
func (l *Logger) WorkspaceCreated(ctx context.Context, r *http.Request, actorID, workspaceID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventWorkspaceCreated,
		ActorID:     &actorID,
		WorkspaceID: &workspaceID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
		Details:     map[string]string{"name": name},
	})
}

// WorkspaceDeleted logs workspace deletion.
func (l *Logger) WorkspaceDeleted(ctx context.Context, r *http.Request, actorID, workspaceID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventWorkspaceDeleted,
		ActorID:     &actorID,
		WorkspaceID: &workspaceID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	})
}

// InviteRedeemed logs a user joining a workspace by invite code.
func (l *Logger) InviteRedeemed(ctx context.Context, r *http.Request, userID, workspaceID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventInviteRedeemed,
		UserID:      &userID,
		WorkspaceID: &workspaceID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	})
}

// InviteRegenerated logs invite code rotation.
func (l *Logger) InviteRegenerated(ctx context.Context, r *http.Request, actorID, workspaceID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventInviteRegenerated,
		ActorID:     &actorID,
		WorkspaceID: &workspaceID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	})
}

// MemberRemoved logs a member being removed from a workspace.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, userID, workspaceID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventMemberRemoved,
		ActorID:     &actorID,
		UserID:      &userID,
		WorkspaceID: &workspaceID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	})
}

// MemberRoleChanged logs a member role change.
func (l *Logger) MemberRoleChanged(ctx context.Context, r *http.Request, actorID, userID, workspaceID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventMemberRoleChanged,
		ActorID:     &actorID,
		UserID:      &userID,
		WorkspaceID: &workspaceID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
		Details:     map[string]string{"role": role},
	})
}
