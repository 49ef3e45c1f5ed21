package infrastructure

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task est une lecture indépendante, exécutée en parallèle des autres
type Task func(ctx context.Context) error

// TaskError nomme la tâche qui a échoué ("contacts fetch: ...")
type TaskError struct {
	Name string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s fetch: %v", e.Name, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// WorkerPool fan-out/fan-in des lectures d'un rapport.
//
// PATTERN: errgroup.WithContext
//   - Submit lance la tâche (au plus workerCount en parallèle)
//   - La première erreur annule le contexte partagé: les autres lectures s'arrêtent
//   - Wait attend toutes les tâches et retourne la première erreur (TaskError)
type WorkerPool struct {
	group *errgroup.Group
	ctx   context.Context
}

// NewWorkerPool crée un pool lié à ctx. workerCount <= 0 = pas de limite.
func NewWorkerPool(ctx context.Context, workerCount int) *WorkerPool {
	group, gctx := errgroup.WithContext(ctx)
	if workerCount > 0 {
		group.SetLimit(workerCount)
	}
	return &WorkerPool{group: group, ctx: gctx}
}

// Submit soumet une tâche nommée. Bloque si workerCount tâches sont déjà en cours.
func (wp *WorkerPool) Submit(name string, task Task) {
	wp.group.Go(func() error {
		if err := task(wp.ctx); err != nil {
			return &TaskError{Name: name, Err: err}
		}
		return nil
	})
}

// Wait attend la fin de toutes les tâches
func (wp *WorkerPool) Wait() error {
	return wp.group.Wait()
}
