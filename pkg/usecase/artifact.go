package usecase

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type artifactUseCase struct {
	root string
}

// NewArtifact serves materialized CSV files under root
func NewArtifact(root string) interfaces.ArtifactUseCase {
	return &artifactUseCase{root: filepath.Clean(root)}
}

func (uc *artifactUseCase) List(ctx context.Context) ([]*model.ArtifactFile, error) {
	files := []*model.ArtifactFile{}

	err := filepath.WalkDir(uc.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == uc.root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(uc.root, path)
		if err != nil {
			return err
		}
		files = append(files, &model.ArtifactFile{
			Name:     d.Name(),
			Path:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list artifacts", goerr.V("root", uc.root))
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// Open returns the file at relPath. relPath may still be URL-escaped.
func (uc *artifactUseCase) Open(ctx context.Context, relPath string) (*os.File, error) {
	decoded, err := url.PathUnescape(relPath)
	if err != nil {
		return nil, goerr.Wrap(types.ErrValidation, "invalid file path", goerr.V("path", relPath))
	}

	full := filepath.Join(uc.root, filepath.FromSlash(decoded))
	if !strings.HasPrefix(full, uc.root+string(os.PathSeparator)) {
		return nil, goerr.Wrap(types.ErrNotFound, "file is outside download root", goerr.V("path", decoded))
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(types.ErrNotFound, "file not found", goerr.V("path", decoded))
		}
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", decoded))
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, goerr.Wrap(types.ErrNotFound, "not a file", goerr.V("path", decoded))
	}
	return f, nil
}
