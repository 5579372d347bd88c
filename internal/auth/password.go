// password.go provides bcrypt password hashing behind a bounded worker pool.
// bcrypt is CPU-bound by design; the semaphore caps how many hashes run at
// once so a burst of registrations or logins cannot starve the scheduler for
// I/O-bound request handling. The pool size is configured independently of
// the HTTP server (auth.hash_workers).
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by Compare when the password does not match
// the stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// Hasher hashes and verifies passwords with a bounded concurrency budget.
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher creates a Hasher with the given bcrypt cost and worker budget.
// Out-of-range costs fall back to the bcrypt default.
func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	return &Hasher{
		cost: cost,
		sem:  make(chan struct{}, workers),
	}
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() {
	<-h.sem
}

// Hash computes the bcrypt hash of password. Blocks until a worker slot is
// free or ctx is cancelled.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare checks password against the stored bcrypt hash. Returns
// ErrPasswordMismatch on a clean mismatch; other errors indicate a malformed
// hash.
func (h *Hasher) Compare(ctx context.Context, hashed, password string) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
