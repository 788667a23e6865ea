package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/diegojoyero/joyeria-backend/pkg/auth"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/google/uuid"
)

// FeedLimit caps how many entries the dashboard shows.
const FeedLimit = 25

// EntryDTO is one activity line as rendered by the dashboard.
type EntryDTO struct {
	ID          uuid.UUID            `json:"id"`
	Action      enums.ActivityAction `json:"type"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	CreatedAt   time.Time            `json:"timestamp"`
}

// Service records and lists admin activity.
type Service interface {
	Record(ctx context.Context, action enums.ActivityAction, title, description string) (*EntryDTO, error)
	Recent(ctx context.Context, limit int) ([]EntryDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the activity service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Record appends an entry. The acting admin is taken from ctx when present.
func (s *service) Record(ctx context.Context, action enums.ActivityAction, title, description string) (*EntryDTO, error) {
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity action")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activity title required")
	}

	entry := &models.ActivityEntry{
		ID:          uuid.New(),
		Action:      action,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	if adminID, ok := pkgauth.AdminIDFromContext(ctx); ok {
		entry.AdminID = &adminID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to record activity")
	}
	s.logg.Info(s.logg.WithField(ctx, "action", action.String()), "activity.recorded")

	dto := fromModel(*entry)
	return &dto, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]EntryDTO, error) {
	if limit <= 0 || limit > FeedLimit {
		limit = FeedLimit
	}
	rows, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load activity")
	}
	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func fromModel(m models.ActivityEntry) EntryDTO {
	return EntryDTO{
		ID:          m.ID,
		Action:      m.Action,
		Title:       m.Title,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
