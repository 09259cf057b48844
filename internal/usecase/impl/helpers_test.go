package impl

import (
	"io"
	"log/slog"

	"rollcall/config"
	"rollcall/internal/infra/persistence/memory"
	"rollcall/internal/infra/pubsub"
	"rollcall/internal/usecase"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serviceFixtures wires every service against a shared in-memory store so
// tests can drive full flows (observe, merge, sync, query) end to end.
type serviceFixtures struct {
	store      *memory.Store
	associator usecase.AssociatorUsecase
	identity   usecase.IdentityUsecase
	status     usecase.StatusUsecase
	intake     usecase.IntakeUsecase
}

func createTestServices() serviceFixtures {
	store := memory.NewStore()
	logger := newDiscardLogger()
	publisher := pubsub.NewNoopPublisher(logger)
	locker := NewEmailLocker()
	cfg := &config.Config{
		Reconcile: &config.ReconcileConfig{WaiverCategory: "waiver"},
	}

	associator := NewAssociatorService(AssociatorServiceParams{
		TxManager: store,
		Publisher: publisher,
		Locker:    locker,
		Config:    cfg,
		Logger:    logger,
	})

	identity := NewIdentityService(IdentityServiceParams{
		TxManager: store,
		Publisher: publisher,
		Locker:    locker,
		Logger:    logger,
	})

	status := NewStatusService(StatusServiceParams{
		PersonRepo:       store.NewPersonRepository(),
		LinkRepo:         store.NewLinkRepository(),
		SubmissionRepo:   store.NewSubmissionRepository(),
		SubscriptionRepo: store.NewSubscriptionRepository(),
		Config:           cfg,
		Logger:           logger,
	})

	intake := NewIntakeService(IntakeServiceParams{
		TxManager:  store,
		Associator: associator,
		Logger:     logger,
	})

	return serviceFixtures{
		store:      store,
		associator: associator,
		identity:   identity,
		status:     status,
		intake:     intake,
	}
}
