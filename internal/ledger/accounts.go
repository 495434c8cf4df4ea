package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/saldo-app/saldo/internal/model"
	"github.com/saldo-app/saldo/internal/store"
)

// CreateAccount persists a new account and returns its store-assigned id.
func (s *Service) CreateAccount(ctx context.Context, a model.Account) (string, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return "", err
	}
	if a.Currency == "" {
		a.Currency = model.DefaultCurrency
	}
	if err := a.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	now := s.now()
	a.CreatedAt = now
	a.LastUpdated = now

	id, err := s.store.Create(ctx, userCol(uid, colAccounts), accountData(a))
	if err != nil {
		return "", fmt.Errorf("creating account: %w", err)
	}
	s.log.Info().Str("account", id).Str("name", a.Name).Msg("account created")
	return id, nil
}

// Account returns one account by id.
func (s *Service) Account(ctx context.Context, id string) (model.Account, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return model.Account{}, err
	}
	doc, err := s.store.Get(ctx, userCol(uid, colAccounts), id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("getting account %s: %w", id, err)
	}
	return accountFromDoc(doc), nil
}

// Accounts returns all accounts ordered by name.
func (s *Service) Accounts(ctx context.Context) ([]model.Account, error) {
	uid, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, userCol(uid, colAccounts), store.Query{OrderBy: "name"})
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	accounts := make([]model.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, accountFromDoc(doc))
	}
	return accounts, nil
}

// UpdateAccount applies a partial merge; nil patch fields keep their stored
// value. The balance is not updatable here — it moves only through the
// atomic adjustment primitive.
func (s *Service) UpdateAccount(ctx context.Context, id string, patch model.AccountPatch) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return fmt.Errorf("%w: account name is required", ErrValidation)
		}
		fields["name"] = *patch.Name
	}
	if patch.Type != nil {
		fields["type"] = string(*patch.Type)
	}
	if patch.IBAN != nil {
		if *patch.IBAN != "" {
			if err := model.ValidateIBAN(*patch.IBAN); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
		}
		fields["iban"] = *patch.IBAN
	}
	if len(fields) == 0 {
		return nil
	}
	fields["lastUpdated"] = s.now()

	col := userCol(uid, colAccounts)
	if _, err := s.store.Get(ctx, col, id); errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: account %s", ErrNotFound, id)
	} else if err != nil {
		return fmt.Errorf("getting account %s: %w", id, err)
	}
	if err := s.store.Merge(ctx, col, id, fields); err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	return nil
}

// DeleteAccount removes an account unconditionally. Cascading deletion of
// the account's transactions and subscriptions is the caller's
// responsibility.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	uid, err := s.userID(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userCol(uid, colAccounts), id); err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	s.log.Info().Str("account", id).Msg("account deleted")
	return nil
}

func accountData(a model.Account) map[string]any {
	return map[string]any{
		"name":        a.Name,
		"type":        string(a.Type),
		"balance":     a.Balance.StringFixed(2),
		"currency":    a.Currency,
		"iban":        a.IBAN,
		"createdAt":   a.CreatedAt,
		"lastUpdated": a.LastUpdated,
	}
}

func accountFromDoc(d store.Doc) model.Account {
	return model.Account{
		ID:          d.ID,
		Name:        docString(d, "name"),
		Type:        model.AccountType(docString(d, "type")),
		Balance:     docDecimal(d, "balance"),
		Currency:    docString(d, "currency"),
		IBAN:        docString(d, "iban"),
		CreatedAt:   docTime(d, "createdAt"),
		LastUpdated: docTime(d, "lastUpdated"),
	}
}
