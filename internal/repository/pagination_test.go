package repository

import (
	"testing"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		in   PageRequest
		want PageRequest
	}{
		{PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{PageRequest{Page: -3, PageSize: 7}, PageRequest{Page: 1, PageSize: 7}},
		{PageRequest{Page: 4, PageSize: MaxPageSize + 1}, PageRequest{Page: 4, PageSize: MaxPageSize}},
	}
	for _, tc := range cases {
		if got := tc.in.normalize(); got != tc.want {
			t.Fatalf("normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	if off := (PageRequest{Page: 3, PageSize: 10}).offset(); off != 20 {
		t.Fatalf("expected offset 20, got %d", off)
	}
}

func TestNewPageResultTotalPages(t *testing.T) {
	req := PageRequest{Page: 1, PageSize: 10}
	cases := map[int64]int{0: 0, 1: 1, 10: 1, 11: 2, 41: 5}
	for total, want := range cases {
		if got := newPageResult[int](req, nil, total).TotalPages; got != want {
			t.Fatalf("total %d: expected %d pages, got %d", total, want, got)
		}
	}
	if items := newPageResult[int](req, nil, 0).Items; items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", items)
	}
}

func TestUserRepositoryListPagedPastLastPage(t *testing.T) {
	repo := NewUserRepository(newRepositoryDBForTest(t))
	seedUsers(t, repo, domain.RoleStudent, domain.RoleStudent)

	page, err := repo.ListPaged(PageRequest{Page: 9, PageSize: 5}, UserListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 0 || page.TotalPages != 1 || page.Page != 9 {
		t.Fatalf("unexpected page: %+v", page)
	}
}
