package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/rab-api/pkg/errors"
	"github.com/noah-isme/rab-api/pkg/jobs"
)

// JobTypeDocumentArchive identifies archive jobs on the queue.
const JobTypeDocumentArchive = "document_archive"

var errArchiveMissing = errors.New("archived document not found")

type archiveStorage interface {
	Save(name string, data []byte) error
	Read(name string) ([]byte, error)
	Delete(name string) error
}

type archiveQueue interface {
	Enqueue(job jobs.Job) error
}

type archiveRenderer interface {
	RenderArchive(ctx context.Context, slug string) ([]byte, error)
}

// DocumentArchiver keeps a rendered PDF of every approved document on disk.
type DocumentArchiver struct {
	storage  archiveStorage
	queue    archiveQueue
	renderer archiveRenderer
	logger   *zap.Logger
}

// NewDocumentArchiver constructs an archiver. Bind must be called before jobs run.
func NewDocumentArchiver(storage archiveStorage, logger *zap.Logger) *DocumentArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentArchiver{storage: storage, logger: logger}
}

// Bind attaches the queue that carries archive jobs and the renderer used to
// produce the PDF.
func (a *DocumentArchiver) Bind(queue archiveQueue, renderer archiveRenderer) {
	a.queue = queue
	a.renderer = renderer
}

// Schedule enqueues an archive job for slug. A job already pending for the
// same slug is left in place.
func (a *DocumentArchiver) Schedule(_ context.Context, slug string) error {
	if a.queue == nil {
		return errors.New("archive queue not bound")
	}
	err := a.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeDocumentArchive, Key: slug})
	if errors.Is(err, jobs.ErrDuplicate) {
		a.logger.Debug("document archive already pending", zap.String("slug", slug))
		return nil
	}
	return err
}

// Handle renders and stores the document named by job.Key. Documents deleted
// or reverted before the job ran are skipped.
func (a *DocumentArchiver) Handle(ctx context.Context, job jobs.Job) error {
	if a.renderer == nil {
		return errors.New("archive renderer not bound")
	}
	logger := a.logger.With(zap.String("job_id", job.ID), zap.String("slug", job.Key))

	pdf, err := a.renderer.RenderArchive(ctx, job.Key)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) || appErrors.HasCode(err, appErrors.ErrBadRequest) {
			logger.Info("skipping document archive", zap.String("reason", appErrors.FromError(err).Message))
			return nil
		}
		return err
	}
	if err := a.storage.Save(archiveName(job.Key), pdf); err != nil {
		return fmt.Errorf("store archived document: %w", err)
	}
	logger.Info("document archived", zap.Int("bytes", len(pdf)))
	return nil
}

// Load returns the archived PDF for slug.
func (a *DocumentArchiver) Load(slug string) ([]byte, error) {
	data, err := a.storage.Read(archiveName(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errArchiveMissing
		}
		return nil, err
	}
	return data, nil
}

// Remove deletes the archived PDF for slug. Missing files are ignored.
func (a *DocumentArchiver) Remove(slug string) error {
	if err := a.storage.Delete(archiveName(slug)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func archiveName(slug string) string {
	return "documents/" + slug + ".pdf"
}
