package archive_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/archive"
	"github.com/m-mizutani/gt"
)

type entry struct {
	name    string
	nonUTF8 bool
	body    string
}

func createZip(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:    e.name,
			Method:  zip.Deflate,
			NonUTF8: e.nonUTF8,
		})
		gt.NoError(t, err)
		_, err = f.Write([]byte(e.body))
		gt.NoError(t, err)
	}
	gt.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecodeEntryName(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		utf8Flag bool
		want     string
	}{
		{
			name:   "EUC-KR bytes are recovered",
			stored: "\xc7\xd1\xb1\xdb.csv",
			want:   "한글.csv",
		},
		{
			name:   "invalid EUC-KR falls back to CP437 reading",
			stored: "\xff\xfe.csv",
			want:   "\u00a0\u25a0.csv",
		},
		{
			name:   "CP949 extension pair is not EUC-KR",
			stored: "\x81\x41.csv",
			want:   "\u00fcA.csv",
		},
		{
			name:   "dangling lead byte falls back to CP437 reading",
			stored: "\xc7.csv",
			want:   "\u255f.csv",
		},
		{
			name:   "ASCII name is unchanged",
			stored: "data_202301.csv",
			want:   "data_202301.csv",
		},
		{
			name:     "UTF-8 flagged name is kept",
			stored:   "서울_기온.csv",
			utf8Flag: true,
			want:     "서울_기온.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, archive.DecodeEntryName(tt.stored, tt.utf8Flag), tt.want)
		})
	}
}

func TestMaterialize(t *testing.T) {
	ctx := context.Background()
	regionDir := filepath.Join(t.TempDir(), "초단기실황", "서울특별시", "종로구", "청운효자동")
	destDir := filepath.Join(regionDir, "기온")

	data := createZip(t,
		entry{name: "\xc7\xd1\xb1\xdb.csv", nonUTF8: true, body: "a,b\n1,2\n"},
		entry{name: "plain.csv", body: "x\n"},
	)

	paths, err := archive.New().Materialize(ctx, data, destDir, "청운효자동_기온_202301_202301")
	gt.NoError(t, err)
	gt.A(t, paths).Length(2)
	gt.Equal(t, paths[0], filepath.Join(destDir, "한글.csv"))

	body, err := os.ReadFile(paths[0])
	gt.NoError(t, err)
	gt.Equal(t, string(body), "a,b\n1,2\n")

	_, err = os.Stat(filepath.Join(regionDir, "청운효자동_기온_202301_202301.zip"))
	gt.True(t, os.IsNotExist(err))
}

func TestMaterialize_Corrupt(t *testing.T) {
	ctx := context.Background()
	destDir := filepath.Join(t.TempDir(), "region", "var")

	_, err := archive.New().Materialize(ctx, []byte("<html>login required</html>"), destDir, "item")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrExtraction))

	_, err = os.Stat(filepath.Join(filepath.Dir(destDir), "item.zip"))
	gt.True(t, os.IsNotExist(err))
}

func TestMaterialize_Empty(t *testing.T) {
	ctx := context.Background()
	destDir := filepath.Join(t.TempDir(), "region", "var")

	_, err := archive.New().Materialize(ctx, createZip(t), destDir, "item")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrEmptyArchive))
}

func TestMaterialize_PathTraversal(t *testing.T) {
	ctx := context.Background()
	destDir := filepath.Join(t.TempDir(), "region", "var")

	data := createZip(t,
		entry{name: "../../escape.csv", body: "bad"},
		entry{name: "ok.csv", body: "good"},
	)

	paths, err := archive.New().Materialize(ctx, data, destDir, "item")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrExtraction))
	gt.Equal(t, paths, []string{filepath.Join(destDir, "ok.csv")})

	_, statErr := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(destDir)), "escape.csv"))
	gt.True(t, os.IsNotExist(statErr))
}
