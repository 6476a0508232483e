package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"organico/internal/domain"
	"organico/internal/repository"
)

func setupPS(t *testing.T) *ProductService {
	t.Helper()
	records := repository.NewRecords(repository.NewMemoryBlobs())
	return NewProductService(records, nil)
}

func newProduct(id, name string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: "fresh",
		Price:       decimal.RequireFromString("4.75"),
		Unit:        "kg",
		Category:    "Frutas",
		Stock:       10,
	}
}

func TestProduct_List_SeedsFirstCall(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	list, out := ps.List(ctx, repository.ProductFilter{})
	if !out.OK() {
		t.Fatalf("outcome: %v", out.Err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 seed products, got %d", len(list))
	}
}

func TestProduct_Save_AppendsNew(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	if _, err := ps.Save(ctx, newProduct("banana", "Banana Prata")); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, _ := ps.List(ctx, repository.ProductFilter{})
	if len(list) != 5 {
		t.Fatalf("expected 5 products, got %d", len(list))
	}
	for i, id := range []string{"1", "2", "3", "4", "banana"} {
		if list[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestProduct_Save_AssignsID(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	p, err := ps.Save(ctx, newProduct("", "Couve"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected id assigned")
	}
	if _, err := ps.GetByID(ctx, p.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestProduct_Save_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	upd := newProduct("2", "Alface Americana")
	upd.Stock = 0
	if _, err := ps.Save(ctx, upd); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, _ := ps.List(ctx, repository.ProductFilter{})
	if len(list) != 4 {
		t.Fatalf("size changed: %d", len(list))
	}
	got := list[1]
	if got.ID != "2" || got.Name != "Alface Americana" || got.Unit != "kg" || got.Stock != 0 || got.ImageURL != "" {
		t.Fatalf("fields not fully replaced: %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("4.75")) {
		t.Fatalf("price not replaced: %s", got.Price)
	}
}

func TestProduct_Save_Invalid(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	cases := []func(p *domain.Product){
		func(p *domain.Product) { p.Name = "" },
		func(p *domain.Product) { p.Description = " " },
		func(p *domain.Product) { p.Category = "" },
		func(p *domain.Product) { p.Unit = "" },
		func(p *domain.Product) { p.Price = decimal.NewFromInt(-1) },
		func(p *domain.Product) { p.Stock = -1 },
	}
	for i, mutate := range cases {
		p := newProduct("x", "X")
		mutate(&p)
		if _, err := ps.Save(ctx, p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	list, _ := ps.List(ctx, repository.ProductFilter{})
	if len(list) != 4 {
		t.Fatalf("invalid saves changed catalog: %d", len(list))
	}
}

func TestProduct_Delete(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)

	// absent id is a no-op
	if err := ps.Delete(ctx, "nope"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	list, _ := ps.List(ctx, repository.ProductFilter{})
	if len(list) != 4 {
		t.Fatalf("catalog changed by absent delete")
	}

	if err := ps.Delete(ctx, "3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ps.GetByID(ctx, "3"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	list, _ = ps.List(ctx, repository.ProductFilter{})
	if len(list) != 3 || list[2].ID != "4" {
		t.Fatalf("unexpected catalog after delete: %d", len(list))
	}
}

func TestProduct_List_Filtering(t *testing.T) {
	ctx := context.Background()
	ps := setupPS(t)
	list, _ := ps.List(ctx, repository.ProductFilter{NameSubstring: "mor"})
	if len(list) != 1 || list[0].ID != "4" {
		t.Fatalf("expected strawberries only, got %v", list)
	}
	max := decimal.NewFromInt(5)
	list, _ = ps.List(ctx, repository.ProductFilter{MaxPrice: &max})
	for _, p := range list {
		if p.Price.GreaterThan(max) {
			t.Fatalf("price filter failed")
		}
	}
}
