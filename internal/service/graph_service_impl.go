package service

import (
	"context"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/graph"
	"github.com/alexanderramin/expeditions/internal/repository"
	"github.com/google/uuid"
)

type graphService struct {
	expeditions repository.ExpeditionRepo
	pins        repository.PinRepo
	conns       repository.ConnectionRepo
	auth        authorizer
	graphs      graphLoader
	uow         db.UnitOfWork
	observer    UseCaseObserver
	now         func() time.Time
}

func NewGraphService(
	expeditions repository.ExpeditionRepo,
	pins repository.PinRepo,
	conns repository.ConnectionRepo,
	roster external.Roster,
	cache *graph.Cache,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) GraphService {
	return &graphService{
		expeditions: expeditions,
		pins:        pins,
		conns:       conns,
		auth:        authorizer{roster: roster},
		graphs:      graphLoader{pins: pins, conns: conns, cache: cache},
		uow:         uow,
		observer:    useCaseObserverOrNoop(observers),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *graphService) CreateExpedition(ctx context.Context, req contract.NewExpeditionRequest) (exp *domain.Expedition, err error) {
	defer observe(ctx, s.observer, "create-expedition", time.Now(), map[string]any{"classroom_id": req.ClassroomID}, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	if err = s.auth.requireTeacher(ctx, req.ClassroomID, req.TeacherProfileID); err != nil {
		return nil, err
	}
	now := s.now()
	exp = &domain.Expedition{
		ID:           uuid.New().String(),
		ClassroomID:  req.ClassroomID,
		TeacherID:    req.TeacherProfileID,
		Name:         req.Name,
		MapImageURL:  req.MapImageURL,
		Status:       domain.ExpeditionDraft,
		AutoProgress: req.AutoProgress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.expeditions.Create(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *graphService) UpdateExpedition(ctx context.Context, req contract.UpdateExpeditionRequest) (exp *domain.Expedition, err error) {
	defer observe(ctx, s.observer, "update-expedition", time.Now(), map[string]any{"expedition_id": req.ExpeditionID}, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	err = s.withinDraft(ctx, req.TeacherProfileID, req.ExpeditionID, func(ctx context.Context, tx db.DBTX, e *domain.Expedition) error {
		if req.Name != nil {
			e.Name = *req.Name
		}
		if req.MapImageURL != nil {
			e.MapImageURL = *req.MapImageURL
		}
		if req.AutoProgress != nil {
			e.AutoProgress = *req.AutoProgress
		}
		e.UpdatedAt = s.now()
		exp = e
		return repository.NewSQLiteExpeditionRepo(tx).Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *graphService) GetExpedition(ctx context.Context, viewerID, expeditionID string) (*domain.Expedition, error) {
	exp, err := s.expeditions.GetByID(ctx, expeditionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.auth.canView(ctx, exp, viewerID); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *graphService) ListExpeditions(ctx context.Context, viewerID, classroomID string) ([]*domain.Expedition, error) {
	role, err := s.auth.role(ctx, classroomID, viewerID)
	if err != nil {
		return nil, err
	}
	all, err := s.expeditions.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleTeacher {
		return all, nil
	}
	visible := make([]*domain.Expedition, 0, len(all))
	for _, e := range all {
		if e.Status != domain.ExpeditionDraft {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

func (s *graphService) GetGraph(ctx context.Context, viewerID, expeditionID string) (*contract.GraphView, error) {
	exp, err := s.GetExpedition(ctx, viewerID, expeditionID)
	if err != nil {
		return nil, err
	}
	g, err := s.graphs.load(ctx, exp)
	if err != nil {
		return nil, err
	}
	return contract.NewGraphView(exp, g.Pins(), g.Connections()), nil
}

func (s *graphService) CreatePin(ctx context.Context, req contract.NewPinRequest) (pin *domain.Pin, err error) {
	defer observe(ctx, s.observer, "create-pin", time.Now(), map[string]any{"expedition_id": req.ExpeditionID}, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	err = s.withinDraft(ctx, req.TeacherProfileID, req.ExpeditionID, func(ctx context.Context, tx db.DBTX, exp *domain.Expedition) error {
		now := s.now()
		pin = &domain.Pin{
			ID:           uuid.New().String(),
			ExpeditionID: exp.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		req.PinFields.Apply(pin)
		return repository.NewSQLitePinRepo(tx).Create(ctx, pin)
	})
	if err != nil {
		return nil, err
	}
	return pin, nil
}

func (s *graphService) UpdatePin(ctx context.Context, req contract.UpdatePinRequest) (pin *domain.Pin, err error) {
	defer observe(ctx, s.observer, "update-pin", time.Now(), map[string]any{"pin_id": req.PinID}, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.pins.GetByID(ctx, req.PinID)
	if err != nil {
		return nil, err
	}
	err = s.withinDraft(ctx, req.TeacherProfileID, existing.ExpeditionID, func(ctx context.Context, tx db.DBTX, _ *domain.Expedition) error {
		txPins := repository.NewSQLitePinRepo(tx)
		p, err := txPins.GetByID(ctx, req.PinID)
		if err != nil {
			return err
		}
		if req.Type == string(domain.PinIntro) && p.Type != domain.PinIntro {
			conns, err := repository.NewSQLiteConnectionRepo(tx).ListByExpedition(ctx, p.ExpeditionID)
			if err != nil {
				return err
			}
			for _, c := range conns {
				if c.ToPinID == p.ID {
					return domain.NewValidationError(domain.FieldError{Field: "pinType", Error: "a pin with incoming connections cannot become INTRO"})
				}
			}
		}
		req.PinFields.Apply(p)
		p.UpdatedAt = s.now()
		pin = p
		return txPins.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return pin, nil
}

func (s *graphService) DeletePin(ctx context.Context, teacherID, pinID string) (err error) {
	defer observe(ctx, s.observer, "delete-pin", time.Now(), map[string]any{"pin_id": pinID}, &err)

	existing, err := s.pins.GetByID(ctx, pinID)
	if err != nil {
		return err
	}
	// Connections go with the pin through ON DELETE CASCADE.
	return s.withinDraft(ctx, teacherID, existing.ExpeditionID, func(ctx context.Context, tx db.DBTX, _ *domain.Expedition) error {
		return repository.NewSQLitePinRepo(tx).Delete(ctx, pinID)
	})
}

func (s *graphService) CreateConnection(ctx context.Context, req contract.NewConnectionRequest) (conn *domain.Connection, err error) {
	defer observe(ctx, s.observer, "create-connection", time.Now(), map[string]any{"expedition_id": req.ExpeditionID}, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	err = s.withinDraft(ctx, req.TeacherProfileID, req.ExpeditionID, func(ctx context.Context, tx db.DBTX, exp *domain.Expedition) error {
		txPins := repository.NewSQLitePinRepo(tx)
		txConns := repository.NewSQLiteConnectionRepo(tx)

		var target *domain.Pin
		for _, ep := range []struct{ field, id string }{{"fromPinId", req.FromPinID}, {"toPinId", req.ToPinID}} {
			p, err := txPins.GetByID(ctx, ep.id)
			if err != nil {
				return err
			}
			if p.ExpeditionID != exp.ID {
				return domain.NewValidationError(domain.FieldError{Field: ep.field, Error: "pin belongs to another expedition"})
			}
			target = p
		}
		if target.Type == domain.PinIntro {
			return domain.NewValidationError(domain.FieldError{Field: "toPinId", Error: "INTRO pins cannot have prerequisites"})
		}
		exists, err := txConns.Exists(ctx, req.FromPinID, req.ToPinID)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewValidationError(domain.FieldError{Field: "toPinId", Error: "connection already exists"})
		}

		now := s.now()
		conn = &domain.Connection{
			ID:           uuid.New().String(),
			ExpeditionID: exp.ID,
			FromPinID:    req.FromPinID,
			ToPinID:      req.ToPinID,
			OnSuccess:    req.OnSuccess,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return txConns.Create(ctx, conn)
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *graphService) UpdateConnection(ctx context.Context, req contract.UpdateConnectionRequest) (conn *domain.Connection, err error) {
	defer observe(ctx, s.observer, "update-connection", time.Now(), map[string]any{"connection_id": req.ConnectionID}, &err)

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.conns.GetByID(ctx, req.ConnectionID)
	if err != nil {
		return nil, err
	}
	err = s.withinDraft(ctx, req.TeacherProfileID, existing.ExpeditionID, func(ctx context.Context, tx db.DBTX, _ *domain.Expedition) error {
		txConns := repository.NewSQLiteConnectionRepo(tx)
		c, err := txConns.GetByID(ctx, req.ConnectionID)
		if err != nil {
			return err
		}
		c.OnSuccess = req.OnSuccess
		c.UpdatedAt = s.now()
		conn = c
		return txConns.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *graphService) DeleteConnection(ctx context.Context, teacherID, connectionID string) (err error) {
	defer observe(ctx, s.observer, "delete-connection", time.Now(), map[string]any{"connection_id": connectionID}, &err)

	existing, err := s.conns.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	return s.withinDraft(ctx, teacherID, existing.ExpeditionID, func(ctx context.Context, tx db.DBTX, _ *domain.Expedition) error {
		return repository.NewSQLiteConnectionRepo(tx).Delete(ctx, connectionID)
	})
}

func (s *graphService) Publish(ctx context.Context, teacherID, expeditionID string) (exp *domain.Expedition, err error) {
	fields := map[string]any{"expedition_id": expeditionID}
	defer observe(ctx, s.observer, "publish-expedition", time.Now(), fields, &err)

	err = s.withinTeacherTx(ctx, teacherID, expeditionID, func(ctx context.Context, tx db.DBTX, e *domain.Expedition) error {
		pins, err := repository.NewSQLitePinRepo(tx).ListByExpedition(ctx, e.ID)
		if err != nil {
			return err
		}
		fields["pin_count"] = len(pins)
		if e.Status == domain.ExpeditionDraft && len(pins) > 0 {
			conns, err := repository.NewSQLiteConnectionRepo(tx).ListByExpedition(ctx, e.ID)
			if err != nil {
				return err
			}
			g, err := graph.New(e.ID, pins, conns)
			if err != nil {
				return err
			}
			if err := g.CheckStartable(); err != nil {
				return err
			}
		}
		if err := e.Publish(len(pins), s.now()); err != nil {
			return err
		}
		exp = e
		return repository.NewSQLiteExpeditionRepo(tx).Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *graphService) Archive(ctx context.Context, teacherID, expeditionID string) (exp *domain.Expedition, err error) {
	defer observe(ctx, s.observer, "archive-expedition", time.Now(), map[string]any{"expedition_id": expeditionID}, &err)

	err = s.withinTeacherTx(ctx, teacherID, expeditionID, func(ctx context.Context, tx db.DBTX, e *domain.Expedition) error {
		if err := e.Archive(s.now()); err != nil {
			return err
		}
		exp = e
		return repository.NewSQLiteExpeditionRepo(tx).Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// withinTeacherTx checks that teacherID teaches the expedition's classroom,
// then runs fn in a transaction with the expedition re-read inside it.
func (s *graphService) withinTeacherTx(ctx context.Context, teacherID, expeditionID string, fn func(ctx context.Context, tx db.DBTX, exp *domain.Expedition) error) error {
	exp, err := s.expeditions.GetByID(ctx, expeditionID)
	if err != nil {
		return err
	}
	if err := s.auth.requireTeacher(ctx, exp.ClassroomID, teacherID); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		current, err := repository.NewSQLiteExpeditionRepo(tx).GetByID(ctx, expeditionID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, current)
	})
}

// withinDraft is withinTeacherTx for structural edits: it fails with
// GraphFrozenError unless the expedition is still a draft.
func (s *graphService) withinDraft(ctx context.Context, teacherID, expeditionID string, fn func(ctx context.Context, tx db.DBTX, exp *domain.Expedition) error) error {
	return s.withinTeacherTx(ctx, teacherID, expeditionID, func(ctx context.Context, tx db.DBTX, exp *domain.Expedition) error {
		if err := exp.CheckEditable(); err != nil {
			return err
		}
		return fn(ctx, tx, exp)
	})
}
