package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/moogmodular/asksats-sub000/internal/errs"
	"github.com/moogmodular/asksats-sub000/internal/models"
	"github.com/moogmodular/asksats-sub000/internal/money"
)

// PostgresRepository implements the Repository interface using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, role, available_msat, locked_msat, notify_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.Role,
		user.AvailableMsat, user.LockedMsat, user.NotifyAddress,
		user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Space repository methods
func (r *PostgresRepository) CreateSpace(ctx context.Context, space *models.Space) error {
	query := `
		INSERT INTO spaces (id, name, description, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if space.ID == "" {
		space.ID = uuid.New().String()
	}
	space.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		space.ID, space.Name, space.Description, space.OwnerID, space.CreatedAt)

	return err
}

func (r *PostgresRepository) GetSpaceByName(ctx context.Context, name string) (*models.Space, error) {
	var space models.Space
	err := r.db.GetContext(ctx, &space, `SELECT * FROM spaces WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &space, nil
}

func (r *PostgresRepository) GetSpaceByID(ctx context.Context, id string) (*models.Space, error) {
	var space models.Space
	err := r.db.GetContext(ctx, &space, `SELECT * FROM spaces WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &space, nil
}

func (r *PostgresRepository) ListSpaces(ctx context.Context) ([]models.Space, error) {
	var spaces []models.Space
	err := r.db.SelectContext(ctx, &spaces, `SELECT * FROM spaces ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return spaces, nil
}

// Ask read methods
func (r *PostgresRepository) GetAsk(ctx context.Context, id string) (*models.Ask, error) {
	var ask models.Ask
	err := r.db.GetContext(ctx, &ask, `SELECT * FROM asks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ask, nil
}

func (r *PostgresRepository) ListAsks(ctx context.Context, spaceID string) ([]models.Ask, error) {
	query := `SELECT * FROM asks ORDER BY created_at DESC`
	args := []interface{}{}

	if spaceID != "" {
		query = `SELECT * FROM asks WHERE space_id = $1 ORDER BY created_at DESC`
		args = append(args, spaceID)
	}

	var asks []models.Ask
	err := r.db.SelectContext(ctx, &asks, query, args...)
	if err != nil {
		return nil, err
	}
	return asks, nil
}

func (r *PostgresRepository) BumpSum(ctx context.Context, askID string) (money.Msat, error) {
	var sum money.Msat
	err := r.db.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount_msat), 0) FROM bumps WHERE ask_id = $1`, askID)
	return sum, err
}

func (r *PostgresRepository) ListBumps(ctx context.Context, askID string) ([]models.Bump, error) {
	var bumps []models.Bump
	err := r.db.SelectContext(ctx, &bumps,
		`SELECT * FROM bumps WHERE ask_id = $1 ORDER BY created_at ASC`, askID)
	if err != nil {
		return nil, err
	}
	return bumps, nil
}

func (r *PostgresRepository) HasBumped(ctx context.Context, askID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM bumps WHERE ask_id = $1 AND bidder_id = $2)`, askID, userID)
	return exists, err
}

func (r *PostgresRepository) CountOffers(ctx context.Context, askID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM offers WHERE ask_id = $1`, askID)
	return count, err
}

// Offer repository methods
func (r *PostgresRepository) CreateOffer(ctx context.Context, offer *models.Offer, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	ask, err := lockAsk(ctx, tx, offer.AskID)
	if err != nil {
		return err
	}

	if ask.Status != models.AskStatusOpen {
		err = errs.Conflict("ask is no longer open")
		return err
	}

	var hasOffers bool
	if err = tx.GetContext(ctx, &hasOffers,
		`SELECT EXISTS(SELECT 1 FROM offers WHERE ask_id = $1)`, ask.ID); err != nil {
		return err
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		hasOffers, ask.FavouriteOfferID != nil, now)
	if status != models.TemporalActive && status != models.TemporalPendingAcceptance {
		err = errs.Conflict("ask is not accepting offers")
		return err
	}

	var alreadyOffered bool
	if err = tx.GetContext(ctx, &alreadyOffered,
		`SELECT EXISTS(SELECT 1 FROM offers WHERE ask_id = $1 AND author_id = $2)`,
		ask.ID, offer.AuthorID); err != nil {
		return err
	}
	if alreadyOffered {
		err = errs.Conflict("author already made an offer on this ask")
		return err
	}

	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	offer.CreatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO offers (id, ask_id, author_id, content, obscured_key, clear_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		offer.ID, offer.AskID, offer.AuthorID, offer.Content,
		offer.ObscuredKey, offer.ClearKey, offer.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.GetContext(ctx, &offer, `SELECT * FROM offers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (r *PostgresRepository) ListOffers(ctx context.Context, askID string) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.SelectContext(ctx, &offers,
		`SELECT * FROM offers WHERE ask_id = $1 ORDER BY created_at ASC`, askID)
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// Atomic ledger operations

// CreateAskWithStake inserts the ask plus its first bump and moves the owner's
// stake from available to locked, all in one transaction. The balance guard is
// a conditional UPDATE so two concurrent spends cannot both pass a stale read.
func (r *PostgresRepository) CreateAskWithStake(ctx context.Context, ask *models.Ask, firstBump *models.Bump) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	if err = stake(ctx, tx, ask.OwnerID, firstBump.AmountMsat, firstBump.CreatedAt); err != nil {
		return err
	}

	if ask.ID == "" {
		ask.ID = uuid.New().String()
	}
	ask.Status = models.AskStatusOpen

	_, err = tx.ExecContext(ctx, `
		INSERT INTO asks (id, owner_id, space_id, kind, status, title, content, tags,
			favourite_offer_id, deadline_at, accepted_deadline_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ask.ID, ask.OwnerID, ask.SpaceID, ask.Kind, ask.Status, ask.Title, ask.Content,
		ask.Tags, ask.FavouriteOfferID, ask.DeadlineAt, ask.AcceptedDeadlineAt, ask.CreatedAt)
	if err != nil {
		return err
	}

	firstBump.AskID = ask.ID
	if err = insertBump(ctx, tx, firstBump); err != nil {
		return err
	}

	return tx.Commit()
}

// AddBump appends a stake to an open, temporally active ask. The ask row is
// locked first so a bump can never interleave with a cancel or settle that has
// already released the stakes. Returns the new bump sum.
func (r *PostgresRepository) AddBump(ctx context.Context, bump *models.Bump, now time.Time) (money.Msat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer rollbackOnErr(tx, &err)

	ask, err := lockAsk(ctx, tx, bump.AskID)
	if err != nil {
		return 0, err
	}

	if ask.Kind == models.AskKindPrivate {
		err = errs.Forbidden("private asks cannot be bumped")
		return 0, err
	}

	if ask.Status != models.AskStatusOpen {
		err = errs.Conflict("ask is no longer open")
		return 0, err
	}

	var hasOffers bool
	if err = tx.GetContext(ctx, &hasOffers,
		`SELECT EXISTS(SELECT 1 FROM offers WHERE ask_id = $1)`, ask.ID); err != nil {
		return 0, err
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		hasOffers, ask.FavouriteOfferID != nil, now)
	if status != models.TemporalActive {
		err = errs.Conflict("ask is not active")
		return 0, err
	}

	var sum money.Msat
	if err = tx.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount_msat), 0) FROM bumps WHERE ask_id = $1`, ask.ID); err != nil {
		return 0, err
	}

	if min := models.MinBump(ask.Kind, sum); bump.AmountMsat < min {
		err = errs.Newf(errs.CodeBelowMinimum, "bump below the minimum of %d sat", min.Sat())
		return 0, err
	}

	if err = stake(ctx, tx, bump.BidderID, bump.AmountMsat, now); err != nil {
		return 0, err
	}

	if bump.ID == "" {
		bump.ID = uuid.New().String()
	}
	bump.CreatedAt = now
	if err = insertBump(ctx, tx, bump); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return sum + bump.AmountMsat, nil
}

// CancelAskAndRefund marks the ask CANCELED and reverses every bump's stake
// pair, restoring each bidder's available balance in full. The owner's own
// initial bump is refunded like any other.
func (r *PostgresRepository) CancelAskAndRefund(ctx context.Context, askID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	ask, err := lockAsk(ctx, tx, askID)
	if err != nil {
		return err
	}

	if ask.Status != models.AskStatusOpen {
		err = errs.InvalidState("ask is not open")
		return err
	}

	now := time.Now().UTC()
	stakes, err := bidderStakes(ctx, tx, askID)
	if err != nil {
		return err
	}
	for _, s := range stakes {
		if err = release(ctx, tx, s.BidderID, s.Total, now, true); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE asks SET status = $1 WHERE id = $2`, models.AskStatusCanceled, askID); err != nil {
		return err
	}

	return tx.Commit()
}

// SettleAskAndPayout marks the ask SETTLED with the chosen favourite offer,
// consumes every bidder's locked stake, credits the offerer with the bounty
// after the platform cut, and credits the space owner's additive share. The
// remainder is never credited to anyone. Returns the offerer payout.
func (r *PostgresRepository) SettleAskAndPayout(ctx context.Context, askID, offerID string, now time.Time) (money.Msat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer rollbackOnErr(tx, &err)

	ask, err := lockAsk(ctx, tx, askID)
	if err != nil {
		return 0, err
	}

	if ask.Status != models.AskStatusOpen {
		err = errs.InvalidState("ask is not open")
		return 0, err
	}

	var offer models.Offer
	if err = tx.GetContext(ctx, &offer, `SELECT * FROM offers WHERE id = $1`, offerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errs.NotFound("offer not found")
		}
		return 0, err
	}
	if offer.AskID != askID {
		err = errs.Conflict("offer does not belong to this ask")
		return 0, err
	}

	status := models.EffectiveStatus(ask.Status, ask.DeadlineAt, ask.AcceptedDeadlineAt,
		true, ask.FavouriteOfferID != nil, now)
	if status != models.TemporalPendingAcceptance {
		err = errs.Conflict("ask is not awaiting acceptance")
		return 0, err
	}

	var sum money.Msat
	if err = tx.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount_msat), 0) FROM bumps WHERE ask_id = $1`, askID); err != nil {
		return 0, err
	}
	payout := money.Payout(sum)

	stakes, err := bidderStakes(ctx, tx, askID)
	if err != nil {
		return 0, err
	}
	for _, s := range stakes {
		// Stakes are consumed, not refunded: locked drops with no matching
		// available credit.
		if err = release(ctx, tx, s.BidderID, s.Total, now, false); err != nil {
			return 0, err
		}
	}

	if err = credit(ctx, tx, offer.AuthorID, payout, now); err != nil {
		return 0, err
	}

	var spaceOwner sql.NullString
	if err = tx.GetContext(ctx, &spaceOwner,
		`SELECT owner_id FROM spaces WHERE id = $1`, ask.SpaceID); err != nil {
		return 0, err
	}
	if spaceOwner.Valid {
		if cut := money.SpaceOwnerCut(payout); cut > 0 {
			if err = credit(ctx, tx, spaceOwner.String, cut, now); err != nil {
				return 0, err
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE asks SET status = $1, favourite_offer_id = $2 WHERE id = $3`,
		models.AskStatusSettled, offerID, askID); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return payout, nil
}

// Transaction log methods

// CreateTransaction inserts a PENDING transaction after evaluating both rate
// limits inside the same transaction, with the owner row locked, so two
// concurrent initiations cannot both pass a stale count.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, txn *models.Transaction, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	if txn.UserID != nil {
		var id string
		if err = tx.GetContext(ctx, &id,
			`SELECT id FROM users WHERE id = $1 FOR UPDATE`, *txn.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = errs.NotFound("user not found")
			}
			return err
		}

		var pending int
		if err = tx.GetContext(ctx, &pending, `
			SELECT COUNT(*) FROM transactions
			WHERE user_id = $1 AND kind = $2 AND status <> $3 AND created_at > $4`,
			*txn.UserID, txn.Kind, models.TransactionStatusSettled,
			now.Add(-money.TransactionMaxAge)); err != nil {
			return err
		}
		if pending >= money.MaxPendingTransactions {
			err = errs.RateLimited("too many pending transactions, retry once they settle or expire")
			return err
		}

		var lastSettled sql.NullTime
		if err = tx.GetContext(ctx, &lastSettled, `
			SELECT MAX(confirmed_at) FROM transactions
			WHERE user_id = $1 AND kind = $2 AND status = $3`,
			*txn.UserID, txn.Kind, models.TransactionStatusSettled); err != nil {
			return err
		}
		if lastSettled.Valid && now.Sub(lastSettled.Time) < money.SettledCooldown {
			err = errs.RateLimited("a transaction settled moments ago, wait before starting another")
			return err
		}
	}

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.Status = models.TransactionStatusPending
	txn.CreatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, kind, status, target_msat, settled_msat,
			hash, pay_request, max_age_seconds, created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.ID, txn.UserID, txn.Kind, txn.Status, txn.TargetMsat, txn.SettledMsat,
		txn.Hash, txn.PayRequest, txn.MaxAgeSeconds, txn.CreatedAt, txn.ConfirmedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.GetContext(ctx, &txn, `SELECT * FROM transactions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PostgresRepository) GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.GetContext(ctx, &txn, `SELECT * FROM transactions WHERE hash = $1`, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.SelectContext(ctx, &txns,
		`SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// SettleInvoiceTransaction marks a PENDING invoice SETTLED and credits the
// owner's available balance with the confirmed amount. A second call on the
// same transaction fails the PENDING guard, so funds enter exactly once.
func (r *PostgresRepository) SettleInvoiceTransaction(ctx context.Context, id string, amount money.Msat, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	txn, err := lockTransaction(ctx, tx, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return err
	}
	if txn.Status != models.TransactionStatusPending {
		err = errs.InvalidState("transaction is not pending")
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1, settled_msat = $2, confirmed_at = $3 WHERE id = $4`,
		models.TransactionStatusSettled, amount, now, id); err != nil {
		return err
	}

	if txn.UserID != nil {
		if err = credit(ctx, tx, *txn.UserID, amount, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) CancelTransaction(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	txn, err := lockTransaction(ctx, tx, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return err
	}
	if txn.Status != models.TransactionStatusPending {
		err = errs.InvalidState("transaction is not pending")
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2`,
		models.TransactionStatusCanceled, id); err != nil {
		return err
	}

	return tx.Commit()
}

// SettleWithdrawalTransaction resolves a PENDING withdrawal by its k1
// reference. confirmed is the node's total outflow including the routing fee;
// the row records settled = confirmed - fee (what reached the wallet) while
// the owner's available balance drops by the full confirmed amount, so the
// fee is absorbed by the user. Returns the settled amount.
func (r *PostgresRepository) SettleWithdrawalTransaction(ctx context.Context, k1 string, confirmed, fee money.Msat, now time.Time) (money.Msat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer rollbackOnErr(tx, &err)

	txn, err := lockTransaction(ctx, tx,
		`SELECT * FROM transactions WHERE hash = $1 AND kind = 'WITHDRAWAL' FOR UPDATE`, k1)
	if err != nil {
		return 0, err
	}
	if txn.Status != models.TransactionStatusPending {
		err = errs.InvalidState("transaction is not pending")
		return 0, err
	}

	settled := confirmed - fee
	if settled < 0 {
		err = errs.InvalidState("fee exceeds the confirmed amount")
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1, settled_msat = $2, confirmed_at = $3 WHERE id = $4`,
		models.TransactionStatusSettled, settled, now, txn.ID); err != nil {
		return 0, err
	}

	if txn.UserID != nil {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE users SET available_msat = available_msat - $1, updated_at = $2
			WHERE id = $3 AND available_msat >= $1`,
			confirmed, now, *txn.UserID)
		if execErr != nil {
			err = execErr
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			err = errs.InsufficientBalance("available balance below the confirmed withdrawal amount")
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return settled, nil
}

// Helpers

type bidderStake struct {
	BidderID string     `db:"bidder_id"`
	Total    money.Msat `db:"total"`
}

func bidderStakes(ctx context.Context, tx *sqlx.Tx, askID string) ([]bidderStake, error) {
	var stakes []bidderStake
	err := tx.SelectContext(ctx, &stakes, `
		SELECT bidder_id, COALESCE(SUM(amount_msat), 0) AS total
		FROM bumps WHERE ask_id = $1 GROUP BY bidder_id`, askID)
	return stakes, err
}

func lockAsk(ctx context.Context, tx *sqlx.Tx, askID string) (*models.Ask, error) {
	var ask models.Ask
	err := tx.GetContext(ctx, &ask, `SELECT * FROM asks WHERE id = $1 FOR UPDATE`, askID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("ask not found")
		}
		return nil, err
	}
	return &ask, nil
}

func lockTransaction(ctx context.Context, tx *sqlx.Tx, query string, arg interface{}) (*models.Transaction, error) {
	var txn models.Transaction
	err := tx.GetContext(ctx, &txn, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("transaction not found")
		}
		return nil, err
	}
	return &txn, nil
}

// stake moves amount from available to locked, guarded against overdraw.
func stake(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Msat, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET available_msat = available_msat - $1, locked_msat = locked_msat + $1, updated_at = $2
		WHERE id = $3 AND available_msat >= $1`,
		amount, now, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.InsufficientBalance("insufficient available balance")
	}
	return nil
}

// release drops amount from locked; when refund is true the same amount is
// restored to available (cancel), otherwise the stake is consumed (settle).
func release(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Msat, now time.Time, refund bool) error {
	query := `
		UPDATE users
		SET locked_msat = locked_msat - $1, updated_at = $2
		WHERE id = $3 AND locked_msat >= $1`
	if refund {
		query = `
		UPDATE users
		SET locked_msat = locked_msat - $1, available_msat = available_msat + $1, updated_at = $2
		WHERE id = $3 AND locked_msat >= $1`
	}
	res, err := tx.ExecContext(ctx, query, amount, now, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.Internal("locked balance does not cover the bump sum")
	}
	return nil
}

func credit(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Msat, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET available_msat = available_msat + $1, updated_at = $2 WHERE id = $3`,
		amount, now, userID)
	return err
}

func insertBump(ctx context.Context, tx *sqlx.Tx, bump *models.Bump) error {
	if bump.ID == "" {
		bump.ID = uuid.New().String()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bumps (id, ask_id, bidder_id, amount_msat, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		bump.ID, bump.AskID, bump.BidderID, bump.AmountMsat, bump.CreatedAt)
	return err
}

func rollbackOnErr(tx *sqlx.Tx, err *error) {
	if *err != nil {
		tx.Rollback()
	}
}
