package repository

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"organico/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type seedDoc struct {
	Products []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
		Unit        string `yaml:"unit"`
		Category    string `yaml:"category"`
		ImageURL    string `yaml:"imageUrl"`
		Stock       int64  `yaml:"stock"`
	} `yaml:"products"`
}

// ParseSeed разбирает YAML-документ с каталогом по умолчанию
func ParseSeed(data []byte) ([]domain.Product, error) {
	var doc seedDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]domain.Product, 0, len(doc.Products))
	for _, p := range doc.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("seed product %s: price: %w", p.ID, err)
		}
		out = append(out, domain.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Unit:        p.Unit,
			Category:    p.Category,
			ImageURL:    p.ImageURL,
			Stock:       p.Stock,
		})
	}
	return out, nil
}

// SeedProducts встроенный каталог; паникует на битом документе
func SeedProducts() []domain.Product {
	products, err := ParseSeed(seedYAML)
	if err != nil {
		panic(err)
	}
	return products
}
