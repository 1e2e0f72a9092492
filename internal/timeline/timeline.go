// Package timeline manages eras, events and persons together with their
// ordered child records, and assembles the timeline view.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/logger"
	"github.com/conorfennell/zeitstrahl/internal/reconcile"
	"github.com/conorfennell/zeitstrahl/internal/storage"
)

type Service struct {
	db         *storage.DB
	log        *logger.Logger
	reconciler *reconcile.Reconciler
	validate   *validator.Validate
	mediaDir   string
}

func NewService(db *storage.DB, log *logger.Logger, reconciler *reconcile.Reconciler, mediaDir string) *Service {
	return &Service{
		db:         db,
		log:        log,
		reconciler: reconciler,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		mediaDir:   mediaDir,
	}
}

type EraInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	StartYear   *int   `json:"start_year" validate:"required"`
	EndYear     *int   `json:"end_year" validate:"required"`
}

type EventInput struct {
	EraID     string                `json:"era_id"`
	Title     string                `json:"title" validate:"required,max=300"`
	Summary   string                `json:"summary" validate:"max=10000"`
	StartYear *int                  `json:"start_year" validate:"required"`
	EndYear   *int                  `json:"end_year"`
	SubEvents []domain.ChildContent `json:"subevents" validate:"dive"`
}

type PersonInput struct {
	EraID        string                `json:"era_id"`
	Name         string                `json:"name" validate:"required,max=200"`
	Bio          string                `json:"bio" validate:"max=10000"`
	Born         *int                  `json:"born" validate:"required"`
	Died         *int                  `json:"died"`
	Achievements []domain.ChildContent `json:"achievements" validate:"dive"`
}

// EventDetail is an event with its sub-events in display order.
type EventDetail struct {
	domain.Event
	SubEvents []domain.ChildRecord `json:"subevents"`
}

// PersonDetail is a person with their achievements in display order.
type PersonDetail struct {
	domain.Person
	Achievements []domain.ChildRecord `json:"achievements"`
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// ListEras returns all eras ordered by start year.
func (s *Service) ListEras(ctx context.Context) ([]domain.Era, error) {
	eras, err := s.db.ListEras(ctx)
	if eras == nil && err == nil {
		eras = []domain.Era{}
	}
	return eras, err
}

func (s *Service) GetEra(ctx context.Context, id string) (*domain.Era, error) {
	return s.db.GetEra(ctx, id)
}

func (s *Service) eraFromInput(in EraInput) (*domain.Era, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if *in.EndYear < *in.StartYear {
		return nil, fmt.Errorf("%w: end_year %d is before start_year %d", domain.ErrInvalidArgument, *in.EndYear, *in.StartYear)
	}
	return &domain.Era{Name: in.Name, Description: in.Description, StartYear: *in.StartYear, EndYear: *in.EndYear}, nil
}

func (s *Service) CreateEra(ctx context.Context, in EraInput) (*domain.Era, error) {
	era, err := s.eraFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.db.InsertEra(ctx, era); err != nil {
		return nil, err
	}
	s.log.Info("Era created", "era_id", era.ID, "name", era.Name)
	return era, nil
}

func (s *Service) UpdateEra(ctx context.Context, id string, in EraInput) (*domain.Era, error) {
	era, err := s.eraFromInput(in)
	if err != nil {
		return nil, err
	}
	era.ID = id
	if err := s.db.UpdateEra(ctx, era); err != nil {
		return nil, err
	}
	return s.db.GetEra(ctx, id)
}

// resolveEra returns explicit when set, otherwise the first era covering year.
func resolveEra(ctx context.Context, q *storage.Queries, explicit string, year int) (string, error) {
	if explicit != "" {
		if _, err := q.GetEra(ctx, explicit); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", fmt.Errorf("%w: era %s does not exist", domain.ErrInvalidArgument, explicit)
			}
			return "", err
		}
		return explicit, nil
	}
	era, err := q.FindEraCovering(ctx, year)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("%w: no era covers the year %d", domain.ErrInvalidArgument, year)
	}
	if err != nil {
		return "", err
	}
	return era.ID, nil
}

// replaceChildren reconciles the children of parentID inside the caller's
// transaction.
func (s *Service) replaceChildren(ctx context.Context, q *storage.Queries, kind storage.ChildKind, parentID string, submitted []domain.ChildContent) ([]domain.ChildRecord, error) {
	res, err := s.reconciler.Reconcile(ctx, q.Children(kind), parentID, submitted)
	if err != nil {
		s.logReconcileFailure(kind, parentID, err)
		if errors.Is(err, reconcile.ErrUnknownChild) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
		}
		return nil, err
	}
	s.log.Debug("Children reconciled",
		"children", kind.String(),
		"parent_id", parentID,
		"updated", res.Count(reconcile.Update),
		"created", res.Count(reconcile.Create),
		"deleted", res.Count(reconcile.Delete),
		"skipped", res.Count(reconcile.Skip),
	)
	return res.Records, nil
}

func (s *Service) logReconcileFailure(kind storage.ChildKind, parentID string, err error) {
	var rerr *reconcile.Error
	if !errors.As(err, &rerr) {
		s.log.Error("Reconcile failed", "children", kind.String(), "parent_id", parentID, "error", err)
		return
	}
	completed := make([]int, 0, len(rerr.Completed))
	for _, op := range rerr.Completed {
		completed = append(completed, op.Index)
	}
	s.log.Error("Reconcile failed, changes rolled back",
		"children", kind.String(),
		"parent_id", parentID,
		"failed_index", rerr.Op.Index,
		"failed_op", rerr.Op.Kind.String(),
		"completed_indices", completed,
		"error", rerr.Err,
	)
}

func normalizeEvent(in *EventInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.EraID = strings.TrimSpace(in.EraID)
}

func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.db.ListEvents(ctx)
	if events == nil && err == nil {
		events = []domain.Event{}
	}
	return events, err
}

// GetEvent returns an event with its sub-events.
func (s *Service) GetEvent(ctx context.Context, id string) (*EventDetail, error) {
	ev, err := s.db.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.db.Children(storage.SubEvents).List(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EventDetail{Event: *ev, SubEvents: children}, nil
}

// CreateEvent stores an event and its sub-events in one transaction.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (*EventDetail, error) {
	normalizeEvent(&in)
	if err := s.check(in); err != nil {
		return nil, err
	}

	var detail *EventDetail
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		eraID, err := resolveEra(ctx, q, in.EraID, *in.StartYear)
		if err != nil {
			return err
		}
		ev := &domain.Event{EraID: eraID, Title: in.Title, Summary: in.Summary, StartYear: *in.StartYear, EndYear: in.EndYear}
		if err := q.InsertEvent(ctx, ev); err != nil {
			return err
		}
		children, err := s.replaceChildren(ctx, q, storage.SubEvents, ev.ID, in.SubEvents)
		if err != nil {
			return err
		}
		detail = &EventDetail{Event: *ev, SubEvents: children}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Event created", "event_id", detail.ID, "subevents", len(detail.SubEvents))
	return detail, nil
}

// UpdateEvent replaces the event's fields and reconciles its sub-events
// against in.SubEvents. A nil list removes all sub-events.
func (s *Service) UpdateEvent(ctx context.Context, id string, in EventInput) (*EventDetail, error) {
	normalizeEvent(&in)
	if err := s.check(in); err != nil {
		return nil, err
	}

	var detail *EventDetail
	err := s.reconciler.Serialize(id, func() error {
		return s.db.InTx(ctx, func(q *storage.Queries) error {
			ev, err := q.GetEvent(ctx, id)
			if err != nil {
				return err
			}
			eraID, err := resolveEra(ctx, q, in.EraID, *in.StartYear)
			if err != nil {
				return err
			}
			ev.EraID, ev.Title, ev.Summary, ev.StartYear, ev.EndYear = eraID, in.Title, in.Summary, *in.StartYear, in.EndYear
			if err := q.UpdateEvent(ctx, ev); err != nil {
				return err
			}
			children, err := s.replaceChildren(ctx, q, storage.SubEvents, id, in.SubEvents)
			if err != nil {
				return err
			}
			detail = &EventDetail{Event: *ev, SubEvents: children}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func normalizePerson(in *PersonInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.EraID = strings.TrimSpace(in.EraID)
}

func (s *Service) ListPersons(ctx context.Context) ([]domain.Person, error) {
	persons, err := s.db.ListPersons(ctx)
	if persons == nil && err == nil {
		persons = []domain.Person{}
	}
	return persons, err
}

// GetPerson returns a person with their achievements.
func (s *Service) GetPerson(ctx context.Context, id string) (*PersonDetail, error) {
	p, err := s.db.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.db.Children(storage.Achievements).List(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PersonDetail{Person: *p, Achievements: children}, nil
}

// CreatePerson stores a person and their achievements in one transaction.
func (s *Service) CreatePerson(ctx context.Context, in PersonInput) (*PersonDetail, error) {
	normalizePerson(&in)
	if err := s.check(in); err != nil {
		return nil, err
	}

	var detail *PersonDetail
	err := s.db.InTx(ctx, func(q *storage.Queries) error {
		eraID, err := resolveEra(ctx, q, in.EraID, *in.Born)
		if err != nil {
			return err
		}
		p := &domain.Person{EraID: eraID, Name: in.Name, Bio: in.Bio, Born: *in.Born, Died: in.Died}
		if err := q.InsertPerson(ctx, p); err != nil {
			return err
		}
		children, err := s.replaceChildren(ctx, q, storage.Achievements, p.ID, in.Achievements)
		if err != nil {
			return err
		}
		detail = &PersonDetail{Person: *p, Achievements: children}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Person created", "person_id", detail.ID, "achievements", len(detail.Achievements))
	return detail, nil
}

// UpdatePerson replaces the person's fields and reconciles their
// achievements against in.Achievements.
func (s *Service) UpdatePerson(ctx context.Context, id string, in PersonInput) (*PersonDetail, error) {
	normalizePerson(&in)
	if err := s.check(in); err != nil {
		return nil, err
	}

	var detail *PersonDetail
	err := s.reconciler.Serialize(id, func() error {
		return s.db.InTx(ctx, func(q *storage.Queries) error {
			p, err := q.GetPerson(ctx, id)
			if err != nil {
				return err
			}
			eraID, err := resolveEra(ctx, q, in.EraID, *in.Born)
			if err != nil {
				return err
			}
			p.EraID, p.Name, p.Bio, p.Born, p.Died = eraID, in.Name, in.Bio, *in.Born, in.Died
			if err := q.UpdatePerson(ctx, p); err != nil {
				return err
			}
			children, err := s.replaceChildren(ctx, q, storage.Achievements, id, in.Achievements)
			if err != nil {
				return err
			}
			detail = &PersonDetail{Person: *p, Achievements: children}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
