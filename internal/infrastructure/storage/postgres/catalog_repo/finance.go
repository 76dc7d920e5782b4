package catalog_repo

import (
	"smartsewing/internal/domain/finance"
	"smartsewing/internal/infrastructure/storage/postgres"
)

// AccountRepo implements finance.AccountRepository.
type AccountRepo struct {
	*BaseCatalogRepo[*finance.Account]
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{BaseCatalogRepo: NewBaseCatalogRepo(
		txManager,
		"fin_accounts",
		"account",
		postgres.ExtractDBColumns[finance.Account](),
		func() *finance.Account { return &finance.Account{} },
	)}
}

// CategoryRepo implements finance.CategoryRepository.
type CategoryRepo struct {
	*BaseCatalogRepo[*finance.Category]
}

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{BaseCatalogRepo: NewBaseCatalogRepo(
		txManager,
		"fin_categories",
		"category",
		postgres.ExtractDBColumns[finance.Category](),
		func() *finance.Category { return &finance.Category{} },
	)}
}

var (
	_ finance.AccountRepository  = (*AccountRepo)(nil)
	_ finance.CategoryRepository = (*CategoryRepo)(nil)
)
