package station_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/station"
	"github.com/m-mizutani/gt"
)

func TestParse(t *testing.T) {
	body := "\ufeffcode,name,lat\n108,서울,37.57\n159,부산,35.10\n,빈코드,0\n"
	got, err := station.Parse(strings.NewReader(body))
	gt.NoError(t, err)
	gt.Equal(t, got, []model.Station{
		{Code: "108", Name: "서울"},
		{Code: "159", Name: "부산"},
	})
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := station.Parse(strings.NewReader("id,label\n1,a\n"))
	gt.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asos.csv")
	gt.NoError(t, os.WriteFile(path, []byte("name,code\n서울,108\n"), 0644))

	m, err := station.Load(path)
	gt.NoError(t, err)
	s, ok := m.Resolve("서울")
	gt.True(t, ok)
	gt.Equal(t, s.Code, "108")
}

func TestLoad_NotFound(t *testing.T) {
	_, err := station.Load(filepath.Join(t.TempDir(), "missing.csv"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNotFound))
}
