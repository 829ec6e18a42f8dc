package postgres

import (
	"context"
	"errors"
	"fmt"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const payoutColumns = `id, ccp_enc, card_info_enc, amount_cents, status, merchant_id, transaction_id, created_at, updated_at`

// PayoutRepo implements ports.PayoutRepository. Destinations are encrypted at rest.
type PayoutRepo struct {
	db  DBTX
	enc ports.EncryptionService
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(db DBTX, enc ports.EncryptionService) *PayoutRepo {
	return &PayoutRepo{db: db, enc: enc}
}

func (r *PayoutRepo) seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return r.enc.Encrypt(plaintext)
}

func (r *PayoutRepo) open(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	return r.enc.Decrypt(ciphertext)
}

func (r *PayoutRepo) scan(row pgx.Row) (*domain.PayoutRequest, error) {
	p := &domain.PayoutRequest{}
	var ccpEnc, cardEnc string
	var amount int64
	err := row.Scan(&p.ID, &ccpEnc, &cardEnc, &amount, &p.Status, &p.MerchantID, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Amount = domain.FromMinorUnits(amount)
	if p.CCP, err = r.open(ccpEnc); err != nil {
		return nil, fmt.Errorf("decrypt ccp: %w: %w", ports.ErrCipher, err)
	}
	if p.CardInfo, err = r.open(cardEnc); err != nil {
		return nil, fmt.Errorf("decrypt card info: %w: %w", ports.ErrCipher, err)
	}
	return p, nil
}

// Create inserts a pending payout request.
func (r *PayoutRepo) Create(ctx context.Context, p *domain.PayoutRequest) error {
	ccpEnc, err := r.seal(p.CCP)
	if err != nil {
		return fmt.Errorf("encrypt ccp: %w: %w", ports.ErrCipher, err)
	}
	cardEnc, err := r.seal(p.CardInfo)
	if err != nil {
		return fmt.Errorf("encrypt card info: %w: %w", ports.ErrCipher, err)
	}

	query := `INSERT INTO payout_requests (` + payoutColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.Exec(ctx, query,
		p.ID, ccpEnc, cardEnc, domain.ToMinorUnits(p.Amount), p.Status,
		p.MerchantID, p.TransactionID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert payout request", err)
	}
	return nil
}

// GetByID fetches a payout request by UUID.
func (r *PayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PayoutRequest, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_requests WHERE id = $1`

	p, err := r.scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get payout request", err)
	}
	return p, nil
}

// List returns payout requests newest first, optionally filtered by status.
func (r *PayoutRepo) List(ctx context.Context, status *domain.PayoutStatus) ([]domain.PayoutRequest, error) {
	query := `SELECT ` + payoutColumns + ` FROM payout_requests`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list payout requests", err)
	}
	defer rows.Close()

	payouts := []domain.PayoutRequest{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, wrapErr("scan payout request", err)
		}
		payouts = append(payouts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate payout requests", err)
	}
	return payouts, nil
}

// UpdateStatus persists an admin decision taken on a request in status from.
// A concurrent decision that committed first leaves no matching row.
func (r *PayoutRepo) UpdateStatus(ctx context.Context, p *domain.PayoutRequest, from domain.PayoutStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE payout_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		p.Status, p.UpdatedAt, p.ID, from,
	)
	if err != nil {
		return wrapErr("update payout status", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrStaleStatus
	}
	return nil
}
