package tlsserver

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/apperr"
	"github.com/fryholic/cctv-coordinator/internal/otp"
	"github.com/fryholic/cctv-coordinator/internal/secrets"
	"github.com/fryholic/cctv-coordinator/internal/store"
)

var sixDigitCode = regexp.MustCompile(`^\d{6}$`)

// handleAuthStep1 is request 8: verify id and password, prime the OTP
// registry if the account enrolled, and issue a short-lived challenge
// token for request 22.
func handleAuthStep1(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		ID       string        `json:"id"`
		Password secrets.Plain `json:"password"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 8", err)
	}
	defer secrets.SecureClear(in.Password)

	if c.deps.Lockout != nil && c.deps.Lockout.Locked(ctx, in.ID) {
		return respAuthStep1, map[string]any{
			"step1_success": false, "requires_otp": false, "message": "account temporarily locked",
		}, nil
	}

	c.deps.Store.Mu.Lock()
	account, err := c.deps.Store.GetAccountByID(ctx, in.ID)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		if c.deps.Lockout != nil {
			c.deps.Lockout.RecordFailure(ctx, in.ID)
		}
		return respAuthStep1, map[string]any{
			"step1_success": false, "requires_otp": false, "message": "invalid credentials",
		}, nil
	}

	ok, err := secrets.VerifyPassword(account.PasswordHash, in.Password.String())
	if err != nil || !ok {
		if c.deps.Lockout != nil {
			c.deps.Lockout.RecordFailure(ctx, in.ID)
		}
		return respAuthStep1, map[string]any{
			"step1_success": false, "requires_otp": false, "message": "invalid credentials",
		}, nil
	}

	if c.deps.Lockout != nil {
		c.deps.Lockout.Clear(ctx, in.ID)
	}

	if account.UseOTP {
		c.deps.OTP.Restore(account.ID, account.OTPSecret)
		challenge, err := c.deps.Challenges.Issue(account.ID)
		if err != nil {
			return 0, nil, apperr.Wrap(apperr.KindInternal, "issue challenge token", err)
		}
		c.sess.pendingAccountID = account.ID
		return respAuthStep1, map[string]any{
			"step1_success": true, "requires_otp": true, "message": "otp required", "challenge_token": challenge,
		}, nil
	}

	c.sess.authenticated = true
	c.sess.accountID = account.ID
	return respAuthStep1, map[string]any{"step1_success": true, "requires_otp": false, "message": "ok"}, nil
}

// handleAuthStep2 is request 22: verify the TOTP code or a recovery code
// for the account that completed request 8 on this connection.
func handleAuthStep2(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		Input          secrets.Plain `json:"input"`
		ChallengeToken string        `json:"challenge_token"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 22", err)
	}
	defer secrets.SecureClear(in.Input)

	accountID := c.sess.pendingAccountID
	if accountID == "" {
		return respAuthStep2, map[string]any{"final_login_success": false, "message": "no pending step1 login"}, nil
	}
	if in.ChallengeToken != "" {
		id, err := c.deps.Challenges.Validate(in.ChallengeToken)
		if err != nil || id != accountID {
			return respAuthStep2, map[string]any{"final_login_success": false, "message": "challenge token invalid or expired"}, nil
		}
	}

	input := in.Input.String()
	var verified bool
	if sixDigitCode.MatchString(input) {
		verified = c.deps.OTP.Verify(accountID, input, time.Now())
	} else {
		c.deps.Store.Mu.Lock()
		ok, err := c.deps.Store.MarkRecoveryCodeUsed(ctx, accountID, input)
		c.deps.Store.Mu.Unlock()
		verified = err == nil && ok
	}

	if !verified {
		if c.deps.Lockout != nil {
			c.deps.Lockout.RecordFailure(ctx, accountID)
		}
		return respAuthStep2, map[string]any{"final_login_success": false, "message": "invalid code"}, nil
	}

	c.sess.authenticated = true
	c.sess.accountID = accountID
	c.sess.pendingAccountID = ""
	if c.deps.Lockout != nil {
		c.deps.Lockout.Clear(ctx, accountID)
	}
	return respAuthStep2, map[string]any{"final_login_success": true, "message": "ok"}, nil
}

// handleCreateAccount is request 9: hash the password, optionally enrol
// TOTP (secret, otpauth URI, SVG QR) and five recovery codes, persist
// everything, and secure-erase the plaintext recovery codes before
// returning.
func handleCreateAccount(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		ID       string        `json:"id"`
		Password secrets.Plain `json:"password"`
		UseOTP   bool          `json:"use_otp"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 9", err)
	}
	defer secrets.SecureClear(in.Password)

	passwordHash, err := secrets.HashPassword(in.Password.String())
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	account := store.Account{ID: in.ID, PasswordHash: passwordHash, UseOTP: in.UseOTP}

	var otpURI, qrSVG string
	var recoveryCodes []secrets.Plain
	if in.UseOTP {
		uri, secret, err := c.deps.OTP.Enrol(in.ID)
		if err != nil {
			return 0, nil, apperr.Wrap(apperr.KindInternal, "enrol totp", err)
		}
		account.OTPSecret = secret
		otpURI = uri

		qrSVG, err = otp.RenderQRSVG(uri)
		if err != nil {
			return 0, nil, apperr.Wrap(apperr.KindInternal, "render qr svg", err)
		}

		recoveryCodes, err = secrets.GenerateRecoveryCodes()
		if err != nil {
			return 0, nil, apperr.Wrap(apperr.KindInternal, "generate recovery codes", err)
		}
	}

	c.deps.Store.Mu.Lock()
	err = c.deps.Store.CreateAccount(ctx, account)
	if err == nil && in.UseOTP {
		hashes, herr := secrets.HashRecoveryCodes(recoveryCodes)
		if herr != nil {
			err = herr
		} else {
			err = c.deps.Store.StoreHashedRecoveryCodes(ctx, in.ID, hashes)
		}
	}
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "create account", err)
	}

	// recoveryCodes are copied out to plain strings here, once, for the
	// response that becomes request 9's only delivery of the plaintext —
	// the store only ever holds their Argon2id hashes (HashRecoveryCodes
	// above). The Plain buffers themselves are cleared immediately after;
	// the copy handed to json.Marshal is the one exposure window Go's
	// immutable strings can't close.
	responseCodes := make([]string, len(recoveryCodes))
	for i, code := range recoveryCodes {
		responseCodes[i] = code.String()
	}
	for _, code := range recoveryCodes {
		secrets.SecureClear(code)
	}

	return respCreateAccount, map[string]any{
		"sign_up_success": true,
		"qr_code_svg":     qrSVG,
		"otp_uri":         otpURI,
		"recovery_codes":  responseCodes,
	}, nil
}
