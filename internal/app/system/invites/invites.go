// Package invites generates workspace invite codes and redeems them into
// memberships.
package invites

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	memberstore "github.com/loftwork/loftwork/internal/app/store/members"
	workspacestore "github.com/loftwork/loftwork/internal/app/store/workspaces"
	"github.com/loftwork/loftwork/internal/app/system/normalize"
	"github.com/loftwork/loftwork/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCode is returned when a redeemed code matches no workspace.
	ErrInvalidCode = errors.New("invite code not found")
	// ErrAlreadyMember is returned when the redeeming user already belongs
	// to the workspace the code points at.
	ErrAlreadyMember = errors.New("already a member of this workspace")
	// ErrCodeGeneration is returned when no unused code could be found
	// within the retry budget.
	ErrCodeGeneration = errors.New("could not generate a unique invite code")
)

// codeAlphabet omits 0, O, 1, and I so codes survive being read aloud or
// hand-copied.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultCodeLength = 6
	maxAttempts       = 5
)

// Service issues and redeems invite codes.
type Service struct {
	workspaces *workspacestore.Store
	members    *memberstore.Store
	codeLen    int
	log        *zap.Logger
}

func New(workspaces *workspacestore.Store, members *memberstore.Store, codeLen int, logger *zap.Logger) *Service {
	if codeLen <= 0 {
		codeLen = DefaultCodeLength
	}
	return &Service{workspaces: workspaces, members: members, codeLen: codeLen, log: logger}
}

// NewCode returns a code not currently assigned to any workspace. The
// uniqueness check here is advisory; the unique index on invite_code is what
// actually arbitrates a race, surfacing as ErrDuplicateInviteCode on write.
func (s *Service) NewCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := randomCode(s.codeLen)
		taken, err := s.workspaces.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		s.log.Warn("invite code collision, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("length", s.codeLen))
	}
	return "", ErrCodeGeneration
}

// Regenerate replaces a workspace's invite code, retrying on write-time
// collisions. The old code stops working the moment the write lands.
func (s *Service) Regenerate(ctx context.Context, workspaceID primitive.ObjectID) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := randomCode(s.codeLen)
		err := s.workspaces.SetInviteCode(ctx, workspaceID, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, workspacestore.ErrDuplicateInviteCode) {
			continue
		}
		return "", err
	}
	return "", ErrCodeGeneration
}

// Redeem joins the user to the workspace behind the code with the member
// role. Two concurrent redemptions of the same code by the same user are
// settled by the unique (user_id, workspace_id) index; the loser gets
// ErrAlreadyMember.
func (s *Service) Redeem(ctx context.Context, userID primitive.ObjectID, code string) (models.Workspace, models.Member, error) {
	code = normalize.InviteCode(code)

	ws, err := s.workspaces.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return models.Workspace{}, models.Member{}, ErrInvalidCode
		}
		return models.Workspace{}, models.Member{}, err
	}

	member, err := s.members.Add(ctx, userID, ws.ID, models.RoleMember)
	if err != nil {
		if errors.Is(err, memberstore.ErrDuplicateMember) {
			return models.Workspace{}, models.Member{}, ErrAlreadyMember
		}
		return models.Workspace{}, models.Member{}, err
	}

	s.log.Info("invite redeemed",
		zap.String("user_id", userID.Hex()),
		zap.String("workspace_id", ws.ID.Hex()))
	return ws, member, nil
}

// randomCode maps uuid bytes onto the code alphabet. Bytes 6 and 8 carry
// the fixed version and variant bits, so they are skipped; the remaining
// bytes are uniform over 0-255 and the alphabet has 32 symbols, so byte%32
// draws every character with equal probability.
func randomCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	for b.Len() < n {
		u := uuid.New()
		for i, by := range u[:] {
			if i == 6 || i == 8 {
				continue
			}
			if b.Len() == n {
				break
			}
			b.WriteByte(codeAlphabet[int(by)%len(codeAlphabet)])
		}
	}
	return b.String()
}
