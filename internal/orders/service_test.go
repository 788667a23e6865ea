package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubRepo struct {
	orders    map[uuid.UUID]*models.Order
	createErr error
	updated   []enums.OrderStatus
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (r *stubRepo) WithTx(*gorm.DB) Repository { return r }

func (r *stubRepo) Create(_ context.Context, order *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *stubRepo) List(context.Context, pagination.Params, ListFilters) ([]models.Order, error) {
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *stubRepo) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	return r.List(ctx, pagination.Params{Limit: limit}, ListFilters{})
}

func (r *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus, at time.Time) error {
	order, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	order.UpdatedAt = at
	r.updated = append(r.updated, status)
	return nil
}

type transitionRecorder struct {
	placed      int
	transitions []string
}

func (t *transitionRecorder) IncOrderPlaced() { t.placed++ }
func (t *transitionRecorder) IncStatusTransition(from, to string) {
	t.transitions = append(t.transitions, from+"->"+to)
}

func placeable() *models.Order {
	return &models.Order{
		PaymentMethod: enums.PaymentMethodTransfer,
		Items:         []models.OrderItem{{ProductID: "p1", Quantity: 1}},
	}
}

func TestPlaceDefaultsAndMetrics(t *testing.T) {
	repo := newStubRepo()
	rec := &transitionRecorder{}
	svc, err := NewService(repo, rec, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	order, err := svc.Place(context.Background(), placeable())
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.ID == uuid.Nil || order.Status != enums.OrderStatusReceived || order.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", order)
	}
	if rec.placed != 1 {
		t.Fatalf("expected placed counter")
	}
}

func TestPlaceWrapsPersistenceFailure(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New("disk full")
	svc, _ := NewService(repo, &transitionRecorder{}, nil)

	_, err := svc.Place(context.Background(), placeable())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestPlaceRejectsEmptyOrder(t *testing.T) {
	svc, _ := NewService(newStubRepo(), &transitionRecorder{}, nil)
	_, err := svc.Place(context.Background(), &models.Order{PaymentMethod: enums.PaymentMethodYape})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTrackReportsStepIndex(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(repo, &transitionRecorder{}, nil)
	order, _ := svc.Place(context.Background(), placeable())
	repo.orders[order.ID].Status = enums.OrderStatusPreparing

	tracking, err := svc.Track(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if tracking.StepIndex != 2 {
		t.Fatalf("expected step 2, got %d", tracking.StepIndex)
	}
	if len(tracking.Steps) != 4 || !tracking.Steps[1].Completed || tracking.Steps[3].Completed || !tracking.Steps[2].Current {
		t.Fatalf("unexpected steps %+v", tracking.Steps)
	}
}

func TestTrackUnknownOrder(t *testing.T) {
	svc, _ := NewService(newStubRepo(), &transitionRecorder{}, nil)
	for _, id := range []string{"DJ-1717245045123", uuid.NewString()} {
		_, err := svc.Track(context.Background(), id)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found for %q, got %v", id, err)
		}
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	repo := newStubRepo()
	rec := &transitionRecorder{}
	svc, _ := NewService(repo, rec, nil)
	order, _ := svc.Place(context.Background(), placeable())

	dto, err := svc.AdminUpdateStatus(context.Background(), order.ID.String(), "paid")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", dto.Status)
	}
	if len(rec.transitions) != 1 || rec.transitions[0] != "received->paid" {
		t.Fatalf("unexpected transitions %v", rec.transitions)
	}

	if _, err := svc.AdminUpdateStatus(context.Background(), order.ID.String(), "paid"); err != nil {
		t.Fatalf("same status should be accepted: %v", err)
	}
	if len(repo.updated) != 1 {
		t.Fatalf("same status should not write, got %v", repo.updated)
	}

	_, err = svc.AdminUpdateStatus(context.Background(), order.ID.String(), "shipped")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminListRejectsBadCursor(t *testing.T) {
	svc, _ := NewService(newStubRepo(), &transitionRecorder{}, nil)
	_, err := svc.AdminList(context.Background(), pagination.Params{Cursor: "%%%"}, ListFilters{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
