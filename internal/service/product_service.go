package service

import (
	"context"
	"errors"

	"restopos/internal/domain"
	"restopos/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг меню
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

var ErrInvalidInput = errors.New("invalid input")

func validModifiers(mods []domain.Modifier) bool {
	seen := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		if m.ID == "" || m.Name == "" || m.Price < 0 {
			return false
		}
		if _, dup := seen[m.ID]; dup {
			return false
		}
		seen[m.ID] = struct{}{}
	}
	return true
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Name == "" || p.SKU == "" || p.Price < 0 || !validModifiers(p.Modifiers) {
		return nil, ErrInvalidInput
	}
	cp := p
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Update меняет цену и опции только для будущих позиций: уже добавленные строки хранят свой снимок
func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID <= 0 || p.Name == "" || p.Price < 0 || !validModifiers(p.Modifiers) {
		return nil, ErrInvalidInput
	}
	cur, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	cp := p
	if cp.SKU == "" {
		cp.SKU = cur.SKU
	}
	if err := s.repo.Update(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}
