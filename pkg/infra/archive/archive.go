package archive

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
)

const zipFlagUTF8 = 0x800

type materializer struct{}

// New returns a Materializer that extracts portal zip archives
func New() interfaces.Materializer {
	return &materializer{}
}

// Materialize stores data as <parent of destDir>/<tempName>.zip, extracts every
// file entry into destDir and removes the archive afterwards, whether
// extraction succeeded or not. Entries that fail are skipped and reported
// together with ErrExtraction while the other paths are still returned.
func (m *materializer) Materialize(ctx context.Context, data []byte, destDir, tempName string) ([]string, error) {
	logger := ctxlog.From(ctx)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create destination directory", goerr.V("dir", destDir))
	}

	zipPath := filepath.Join(filepath.Dir(destDir), tempName+".zip")
	if err := os.WriteFile(zipPath, data, 0600); err != nil {
		return nil, goerr.Wrap(err, "failed to write archive", goerr.V("path", zipPath))
	}
	defer func() {
		if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove temporary archive", "path", zipPath, "error", err)
		}
	}()

	reader, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, goerr.Wrap(types.ErrExtraction, "failed to open archive",
			goerr.V("path", zipPath), goerr.V("cause", err.Error()))
	}
	defer reader.Close()

	var (
		paths   []string
		errs    []error
		entries int
	)
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		entries++

		name := DecodeEntryName(file.Name, file.Flags&zipFlagUTF8 != 0)
		destPath, err := extractFile(file, name, destDir)
		if err != nil {
			logger.Warn("Failed to extract archive entry", "entry", name, "error", err)
			errs = append(errs, err)
			continue
		}

		logger.Debug("Extracted archive entry", "entry", name, "path", destPath)
		paths = append(paths, destPath)
	}

	if entries == 0 {
		return nil, goerr.Wrap(types.ErrEmptyArchive, "archive contains no files", goerr.V("archive", tempName))
	}
	if len(errs) > 0 {
		return paths, goerr.Wrap(types.ErrExtraction, "failed to extract some entries",
			goerr.V("archive", tempName),
			goerr.V("failed", len(errs)),
			goerr.V("cause", errors.Join(errs...).Error()))
	}

	return paths, nil
}

// DecodeEntryName recovers the file name of a portal archive entry. The portal
// stores EUC-KR names without the UTF-8 flag, which legacy tools display as
// CP437. Names flagged as UTF-8 are returned as is. Otherwise the stored
// bytes are decoded strictly as EUC-KR and, failing that, read as CP437.
func DecodeEntryName(stored string, utf8Flag bool) string {
	if utf8Flag {
		return stored
	}

	raw := []byte(stored)
	if decoded, ok := decodeEUCKR(raw); ok {
		return decoded
	}

	fallback, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return stored
	}
	return string(fallback)
}

func decodeEUCKR(raw []byte) (string, bool) {
	if !isStrictEUCKR(raw) {
		return "", false
	}
	out, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	// The decoder substitutes invalid sequences instead of failing.
	if !utf8.Valid(out) || strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// isStrictEUCKR reports whether every non-ASCII byte belongs to a KS X 1001
// pair. The x/text decoder also accepts the CP949 extension, which EUC-KR lacks.
func isStrictEUCKR(raw []byte) bool {
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x80 {
			continue
		}
		if i+1 >= len(raw) || !inKSX1001(raw[i]) || !inKSX1001(raw[i+1]) {
			return false
		}
		i++
	}
	return true
}

func inKSX1001(b byte) bool {
	return b >= 0xa1 && b <= 0xfe
}

func extractFile(file *zip.File, name, destDir string) (string, error) {
	destPath := filepath.Join(destDir, name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", goerr.New("invalid file path detected", goerr.V("entry", name), goerr.V("dest", destPath))
	}

	rc, err := file.Open()
	if err != nil {
		return "", goerr.Wrap(err, "failed to open archive entry", goerr.V("entry", name))
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return "", goerr.Wrap(err, "failed to write entry content", goerr.V("path", destPath))
	}

	return destPath, nil
}
