package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/db"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/external"
	"github.com/alexanderramin/expeditions/internal/importer"
	"github.com/alexanderramin/expeditions/internal/repository"
)

type importService struct {
	auth     authorizer
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(roster external.Roster, uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{
		auth:     authorizer{roster: roster},
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportExpedition(ctx context.Context, teacherID, filePath string) (*contract.ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportExpeditionFromSchema(ctx, teacherID, schema)
}

// ImportExpeditionFromSchema creates the whole expedition in one transaction
// and publishes it when the file asks to.
func (s *importService) ImportExpeditionFromSchema(ctx context.Context, teacherID string, schema *importer.ImportSchema) (res *contract.ImportResult, err error) {
	fields := map[string]any{"classroom_id": schema.Expedition.ClassroomID}
	defer observe(ctx, s.observer, "import-expedition", time.Now(), fields, &err)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	if err = s.auth.requireTeacher(ctx, schema.Expedition.ClassroomID, teacherID); err != nil {
		return nil, err
	}

	generated := importer.Convert(schema, teacherID)
	fields["pin_count"] = len(generated.Pins)
	fields["connection_count"] = len(generated.Connections)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		expRepo := repository.NewSQLiteExpeditionRepo(tx)
		pinRepo := repository.NewSQLitePinRepo(tx)
		connRepo := repository.NewSQLiteConnectionRepo(tx)

		if err := expRepo.Create(ctx, generated.Expedition); err != nil {
			return fmt.Errorf("creating expedition: %w", err)
		}
		for _, pin := range generated.Pins {
			if err := pinRepo.Create(ctx, pin); err != nil {
				return fmt.Errorf("creating pin %q: %w", pin.Name, err)
			}
		}
		for _, conn := range generated.Connections {
			if err := connRepo.Create(ctx, conn); err != nil {
				return fmt.Errorf("creating connection: %w", err)
			}
		}
		if !generated.Publish {
			return nil
		}
		if err := generated.Expedition.Publish(len(generated.Pins), time.Now().UTC()); err != nil {
			return err
		}
		return expRepo.Update(ctx, generated.Expedition)
	})
	if err != nil {
		return nil, err
	}

	return &contract.ImportResult{
		Expedition:      contract.NewExpeditionView(generated.Expedition),
		PinCount:        len(generated.Pins),
		ConnectionCount: len(generated.Connections),
		Published:       generated.Publish,
	}, nil
}

func formatValidationErrors(errs []error) error {
	fields := make([]domain.FieldError, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, domain.FieldError{Field: "import", Error: e.Error()})
	}
	return domain.NewValidationError(fields...)
}
