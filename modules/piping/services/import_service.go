package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fieldforge/pipetrak/modules/piping/importer"
)

// ImportService runs bulk imports against a store. It is a thin
// orchestrator: all pipeline semantics live in the importer package.
type ImportService struct {
	store importer.Store
	log   *logrus.Entry
}

func NewImportService(store importer.Store, log *logrus.Entry) *ImportService {
	return &ImportService{store: store, log: log}
}

func (s *ImportService) Import(ctx context.Context, path string, opts importer.Options) (*importer.Result, error) {
	job := importer.NewJob(s.store, s.log, opts)
	return job.Run(ctx, path)
}
