package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	UpdateReceiptURL(ctx context.Context, id uuid.UUID, url string) error

	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	// DeleteTransactions removes the given transactions owned by userID and
	// returns the ids that were actually deleted.
	DeleteTransactions(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

// Linker keeps the owning user's transaction list in step with the
// transactions table.
type Linker interface {
	AppendTransaction(ctx context.Context, userID, txID uuid.UUID) error
	RemoveTransactions(ctx context.Context, userID uuid.UUID, txIDs []uuid.UUID) error
}

type Service struct {
	repo   Repository
	linker Linker
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, linker Linker, opts ...Option) *Service {
	s := &Service{repo: repo, linker: linker, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	return s
}

// ManualEntry holds the fields of a hand-entered transaction. Amount and Date
// are pointers so that "missing" can be told apart from zero.
type ManualEntry struct {
	Merchant string
	Amount   *float64
	Category Category
	Items    []Item
	Date     *time.Time
}

type ListFilter struct {
	UserIDs   []uuid.UUID
	Category  *Category
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateFromManualEntry validates and persists a hand-entered transaction,
// then appends it to the user's transaction list.
func (s *Service) CreateFromManualEntry(ctx context.Context, userID uuid.UUID, entry ManualEntry) (*Transaction, error) {
	items, err := validateEntry(entry)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if entry.Date != nil && !entry.Date.IsZero() {
		date = *entry.Date
	}

	tx := &Transaction{
		UserID:   userID,
		Amount:   *entry.Amount,
		Category: entry.Category,
		Items:    items,
		Date:     date,
		Merchant: strings.TrimSpace(entry.Merchant),
	}

	if err := s.persist(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// CreateFromReceipt persists a confirmed receipt draft as a new transaction.
func (s *Service) CreateFromReceipt(ctx context.Context, userID uuid.UUID, draft *receipt.Draft, date *time.Time) (*Transaction, error) {
	tx := &Transaction{
		UserID:   userID,
		Category: CategoryFromReceipt(draft.Category),
		Date:     s.now(),
		Merchant: draft.Merchant,
	}

	if date != nil && !date.IsZero() {
		tx.Date = *date
	}

	applyDraft(tx, draft)

	if err := s.persist(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// AttachReceipt merges a receipt draft onto an existing transaction of the
// user. Calling it again with the same draft leaves the record unchanged.
func (s *Service) AttachReceipt(ctx context.Context, userID, id uuid.UUID, draft *receipt.Draft) (*Transaction, error) {
	tx, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	applyDraft(tx, draft)

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("attaching receipt: %w", err)
	}

	return tx, nil
}

// AttachReceiptImage links an archived receipt image to the transaction.
func (s *Service) AttachReceiptImage(ctx context.Context, id uuid.UUID, url string) error {
	return s.repo.UpdateReceiptURL(ctx, id, url)
}

// Get returns the transaction if it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.UserID != userID {
		return nil, ErrNotFound
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// Update validates and saves manual corrections to a transaction.
func (s *Service) Update(ctx context.Context, tx *Transaction) error {
	amount := tx.Amount

	items, err := validateEntry(ManualEntry{
		Merchant: tx.Merchant,
		Amount:   &amount,
		Category: tx.Category,
		Items:    tx.Items,
	})
	if err != nil {
		return err
	}

	tx.Items = items

	return s.repo.UpdateTransaction(ctx, tx)
}

// Delete removes a single transaction of the user.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.DeleteBatch(ctx, userID, []uuid.UUID{id})
	if err != nil {
		return err
	}

	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteBatch removes the user's transactions among ids and detaches them
// from the user's list. Ids that do not exist or belong to someone else are
// ignored, so a retried call is harmless.
func (s *Service) DeleteBatch(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	deleted, err := s.repo.DeleteTransactions(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting transactions: %w", err)
	}

	// Detach every requested id, not only the ones deleted now, so a retry
	// after a failed detach still cleans the list up.
	if err := s.linker.RemoveTransactions(ctx, userID, ids); err != nil {
		return 0, fmt.Errorf("detaching transactions from user: %w", err)
	}

	return len(deleted), nil
}

func (s *Service) persist(ctx context.Context, tx *Transaction) error {
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return err
	}

	if err := s.linker.AppendTransaction(ctx, tx.UserID, tx.ID); err != nil {
		if _, delErr := s.repo.DeleteTransactions(ctx, tx.UserID, []uuid.UUID{tx.ID}); delErr != nil {
			slog.Error("failed to roll back transaction after link failure",
				"transaction_id", tx.ID, "error", delErr)
		}

		return fmt.Errorf("linking transaction to user: %w", err)
	}

	return nil
}

// applyDraft copies the receipt-derived fields onto tx. The amount is only
// replaced when the draft accounts for the whole receipt, or when the
// transaction has no amount yet.
func applyDraft(tx *Transaction, draft *receipt.Draft) {
	items := make([]Item, 0, len(draft.Items))
	for _, it := range draft.Items {
		items = append(items, Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	tx.Items = items
	tx.CO2Emissions = draft.CO2Emissions
	tx.ReceiptUploaded = true

	if (!draft.EmissionsIncomplete && draft.Amount > 0) || tx.Amount == 0 {
		tx.Amount = draft.Amount
	}
}

func validateEntry(entry ManualEntry) ([]Item, error) {
	var verr ValidationError

	if strings.TrimSpace(entry.Merchant) == "" {
		verr.add("merchant", "merchant is required")
	}

	switch {
	case entry.Amount == nil:
		verr.add("amount", "amount is required")
	case *entry.Amount < 0:
		verr.add("amount", "amount cannot be negative")
	}

	if !entry.Category.Valid() {
		if entry.Category == "" {
			verr.add("category", "category is required")
		} else {
			verr.add("category", fmt.Sprintf("%s is not a supported category", entry.Category))
		}
	}

	items := make([]Item, 0, len(entry.Items))

	for i, it := range entry.Items {
		if strings.TrimSpace(it.Name) == "" {
			verr.add(fmt.Sprintf("items[%d].name", i), "item name is required")
		}

		if it.Price < 0 {
			verr.add(fmt.Sprintf("items[%d].price", i), "price cannot be negative")
		}

		if it.Quantity == 0 {
			it.Quantity = 1
		}

		if it.Quantity < 1 {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}

		it.Name = strings.TrimSpace(it.Name)
		items = append(items, it)
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return items, nil
}
