package application

import (
	"context"
	"time"

	"crmdash/internal/forecasts/domain"
	"crmdash/internal/forecasts/infrastructure"
	"crmdash/internal/logger"
)

// ForecastWriter est la partie écriture du repository des prévisions
type ForecastWriter interface {
	Update(ctx context.Context, id domain.ID, values map[string]any) error
	Delete(ctx context.Context, id domain.ID) (int64, error)
}

// ForecastService applique les corrections manuelles des prévisions (PATCH/DELETE)
// et publie un événement après chaque mutation réussie.
type ForecastService struct {
	repo      ForecastWriter
	publisher infrastructure.Publisher
	now       func() time.Time
}

// NewForecastService crée le service. publisher nil = aucun événement.
func NewForecastService(repo ForecastWriter, publisher infrastructure.Publisher) *ForecastService {
	if publisher == nil {
		publisher = infrastructure.NoopPublisher{}
	}
	return &ForecastService{repo: repo, publisher: publisher, now: time.Now}
}

// Update valide l'identifiant et le corps, puis écrit les champs fournis.
//
// Ordre des contrôles (aucun appel au store avant le dernier):
//  1. id entier strictement positif
//  2. corps conforme au schéma
//  3. au moins un champ applicable, sinon ErrEmptyPatch
//
// Dernière écriture gagnante: pas de contrôle de version.
func (s *ForecastService) Update(ctx context.Context, rawID string, body []byte) error {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return err
	}
	patch, err := domain.ParsePatch(body)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return domain.ErrEmptyPatch
	}

	if err := s.repo.Update(ctx, id, patch.Values()); err != nil {
		return err
	}

	logger.FromContext(ctx).WithField("cofId", int64(id)).WithField("fields", patch.Fields()).Info("forecast updated")
	s.publish(ctx, domain.ChangeEvent{Type: domain.EventUpdated, CofID: int64(id), Fields: patch.Fields(), At: s.now().UTC()})
	return nil
}

// Delete supprime la prévision. Supprimer un id absent est une confirmation idempotente:
// l'événement n'est publié que si une ligne a réellement été supprimée.
func (s *ForecastService) Delete(ctx context.Context, rawID string) error {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return err
	}

	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	rlog := logger.FromContext(ctx).WithField("cofId", int64(id))
	if n == 0 {
		rlog.Debug("forecast already absent")
		return nil
	}
	rlog.Info("forecast deleted")
	s.publish(ctx, domain.ChangeEvent{Type: domain.EventDeleted, CofID: int64(id), At: s.now().UTC()})
	return nil
}

// publish n'échoue jamais la requête: l'écriture est déjà faite
func (s *ForecastService) publish(ctx context.Context, event domain.ChangeEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("event", event.Type).Warn("forecast event not published")
	}
}
