package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
)

// DefaultActor is recorded when the context carries no actor.
const DefaultActor = "player"

type actorKey struct{}

// WithActor tags ctx with the name recorded in audit entries, such as the
// remote address of a web terminal.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or DefaultActor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return DefaultActor
}

type AuditService struct {
	repo    ports.AuditRepository
	session string
}

// NewAuditService records entries through repo under a fresh session id.
func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo, session: uuid.New().String()}
}

func (s *AuditService) Session() string {
	return s.session
}

func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, target, details string, success bool) error {
	// Use Domain Factory to ensure business rules
	entry, err := domain.NewAuditLog(ActorFrom(ctx), s.session, action, target, details, success)
	if err != nil {
		return err
	}
	return s.repo.SaveAuditLog(ctx, *entry)
}

func (s *AuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}

var _ ports.AuditService = (*AuditService)(nil)
