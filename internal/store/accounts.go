package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateAccount inserts a new Account row. Fails with ErrUnique if id
// already exists.
func (s *Store) CreateAccount(ctx context.Context, a Account) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO accounts (id, passwd, otp_secret, use_otp) VALUES (?, ?, ?, ?)`,
		a.ID, a.PasswordHash, a.OTPSecret, boolToInt(a.UseOTP))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUnique
		}
		return fmt.Errorf("%w: create account: %v", ErrBackend, err)
	}
	return nil
}

// GetAccountByID fetches a single Account.
func (s *Store) GetAccountByID(ctx context.Context, id string) (Account, error) {
	var a Account
	var useOTP int
	var otpSecret sql.NullString
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, passwd, otp_secret, use_otp FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.PasswordHash, &otpSecret, &useOTP)
	if err == sql.ErrNoRows {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("%w: get account: %v", ErrBackend, err)
	}
	a.OTPSecret = otpSecret.String
	a.UseOTP = useOTP != 0
	return a, nil
}

// SetOTPSecret stores the account's TOTP secret.
func (s *Store) SetOTPSecret(ctx context.Context, id, secret string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE accounts SET otp_secret = ? WHERE id = ?`, secret, id)
	if err != nil {
		return fmt.Errorf("%w: set otp secret: %v", ErrBackend, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: set otp secret rows affected: %v", ErrBackend, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
