package content

import (
	"context"

	"learnhub/apperr"
	"learnhub/logger"
	"learnhub/models/course"
	"learnhub/services/authz"
	"learnhub/services/ordering"
	"learnhub/storage"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const uploadConcurrency = 4

// Service owns the Course -> Module -> Lesson -> Video hierarchy. Every
// mutation resolves the instructor's ownership chain first, and every delete
// cascades in one transaction before releasing blobs.
type Service struct {
	db       *gorm.DB
	authz    *authz.Resolver
	order    *ordering.Engine
	store    storage.AssetStore
	releaser *storage.Releaser
	policy   storage.UploadPolicy
	log      *logger.Logger
}

func NewService(db *gorm.DB, resolver *authz.Resolver, engine *ordering.Engine, store storage.AssetStore,
	releaser *storage.Releaser, policy storage.UploadPolicy, log *logger.Logger) *Service {
	return &Service{
		db:       db,
		authz:    resolver,
		order:    engine,
		store:    store,
		releaser: releaser,
		policy:   policy,
		log:      log.With("service", "ContentService"),
	}
}

// upload stores files concurrently. If any upload fails the ones that landed
// are released and a Dependency error is returned.
func (s *Service) upload(ctx context.Context, files []storage.FilePart, types []string) ([]course.ResourceFile, error) {
	if len(files) == 0 {
		return nil, nil
	}

	out := make([]course.ResourceFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			obj, err := s.store.Upload(gctx, files[i].Data, types[i])
			if err != nil {
				return err
			}
			out[i] = course.ResourceFile{
				URL:          obj.URL,
				Key:          obj.Key,
				OriginalName: files[i].Name,
				Size:         files[i].Size(),
				MimeType:     types[i],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("Upload failed, releasing landed files", "files", len(files), "error", err)
		s.releaser.Release(ctx, resourceKeys(out))
		return nil, apperr.Dependency("Failed to upload file!", err)
	}
	return out, nil
}

func resourceKeys(files []course.ResourceFile) []string {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		if f.Key != "" {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// mergeFieldErrors combines validation failures from several checks into one error.
func mergeFieldErrors(errs ...error) error {
	fields := make(map[string]string)
	for _, err := range errs {
		if err == nil {
			continue
		}
		e, ok := apperr.As(err)
		if !ok || e.Kind != apperr.KindValidation {
			return err
		}
		if len(e.Fields) == 0 {
			return e
		}
		for k, v := range e.Fields {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.Validation(fields)
}
