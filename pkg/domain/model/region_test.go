package model_test

import (
	"testing"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestSearchRegions(t *testing.T) {
	regions := []model.Region{
		{Level1: "경기도", Level2: "서울시흥구", Level3: "신천동", Code: "4139052000"},
		{Level1: "서울특별시", Level2: "종로구", Level3: "청운효자동", Code: "1111051500"},
		{Level1: "부산광역시", Level2: "중구", Level3: "중앙동", Code: "2611051000"},
		{Level1: "서울", Level2: "", Level3: "서울", Code: "1100000000"},
		{Level1: "인천광역시", Level2: "남서울구", Level3: "구월동", Code: "2820000000"},
	}

	t.Run("exact then prefix then substring", func(t *testing.T) {
		got := model.SearchRegions(regions, "서울")
		codes := make([]string, 0, len(got))
		for _, r := range got {
			codes = append(codes, r.Code)
		}
		gt.Equal(t, codes, []string{
			"1100000000", // exact
			"4139052000", // prefix on level2, ordered by level1
			"1111051500", // prefix on level1
			"2820000000", // substring
		})
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := model.SearchRegions([]model.Region{{Level1: "Seoul", Level3: "Jongno", Code: "1"}}, "SEO")
		gt.A(t, got).Length(1)
	})

	t.Run("empty term returns all ordered by levels", func(t *testing.T) {
		got := model.SearchRegions(regions, "")
		gt.A(t, got).Length(len(regions))
		gt.Equal(t, got[0].Level1, "경기도")
	})

	t.Run("no match", func(t *testing.T) {
		got := model.SearchRegions(regions, "제주")
		gt.A(t, got).Length(0)
	})
}

func TestStationMap(t *testing.T) {
	m := model.NewStationMap([]model.Station{
		{Code: "108", Name: "서울"},
		{Code: "159", Name: "부산"},
		{Code: "119", Name: "수원"},
	})

	t.Run("resolve by name", func(t *testing.T) {
		s, ok := m.Resolve("부산")
		gt.True(t, ok)
		gt.Equal(t, s.Code, "159")
	})

	t.Run("resolve by code", func(t *testing.T) {
		s, ok := m.Resolve(" 108 ")
		gt.True(t, ok)
		gt.Equal(t, s.Name, "서울")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, ok := m.Resolve("평양")
		gt.False(t, ok)
	})

	t.Run("search", func(t *testing.T) {
		got := m.Search("1")
		gt.A(t, got).Length(3)
		gt.A(t, m.Search("수")).Length(1)
	})
}
