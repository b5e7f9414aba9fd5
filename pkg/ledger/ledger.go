// Package ledger is an in-process stand-in for the serialized transactional
// execution of program handlers over typed accounts that the serviceability
// and resource-extension programs assume (§1): no validator is available to
// run this repo against, so Submit plays the role a cluster would — apply a
// handler's account mutations atomically under a single writer, then notify
// subscribers of what changed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already has data (I3 PDA uniqueness)")
	ErrWrongOwner           = errors.New("account not owned by this program")
)

// Account is the ledger's view of on-chain state: typed account bytes plus
// the bookkeeping a real runtime would also track (owner, lamports) so
// close/resize semantics (§4.4) have something to act on.
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Update is published to subscribers after a transaction commits.
type Update struct {
	TxID     string
	Accounts map[solana.PublicKey]Account
}

// Ledger holds every account keyed by its PDA and serializes all mutation
// through Submit — the single source of truth the activator's reconciler
// observes and the mirror allocators are rebuilt from at boot (I8).
type Ledger struct {
	programID solana.PublicKey
	clock     clockwork.Clock

	mu       sync.Mutex
	accounts map[solana.PublicKey]Account

	subMu sync.Mutex
	subs  map[string]chan Update
}

type Option func(*Ledger)

func WithClock(c clockwork.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

func New(programID solana.PublicKey, opts ...Option) *Ledger {
	l := &Ledger{
		programID: programID,
		clock:     clockwork.NewRealClock(),
		accounts:  make(map[solana.PublicKey]Account),
		subs:      make(map[string]chan Update),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handler mutates ledger state under Submit's lock. It reports failure
// through its error; the Store it is given records which pubkeys it touched
// so Submit can build a minimal Update.
type Handler func(s *Store) error

// Store is the per-transaction view a Handler mutates; it tracks which
// accounts were touched so Submit can publish a precise Update.
type Store struct {
	ledger  *Ledger
	touched map[solana.PublicKey]struct{}
}

// Get reads an account's current bytes. Returns ErrAccountNotFound if it has
// never been created or has been closed.
func (s *Store) Get(pubkey solana.PublicKey) (Account, error) {
	acc, ok := s.ledger.accounts[pubkey]
	if !ok || len(acc.Data) == 0 {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
	}
	return acc, nil
}

// Exists reports whether pubkey currently has nonzero account data.
func (s *Store) Exists(pubkey solana.PublicKey) bool {
	acc, ok := s.ledger.accounts[pubkey]
	return ok && len(acc.Data) > 0
}

// Create writes a brand-new account, failing per I3 if one with nonzero
// data already lives at pubkey.
func (s *Store) Create(pubkey solana.PublicKey, owner solana.PublicKey, data []byte, lamports uint64) error {
	if s.Exists(pubkey) {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, pubkey)
	}
	s.ledger.accounts[pubkey] = Account{Owner: owner, Lamports: lamports, Data: data}
	s.touched[pubkey] = struct{}{}
	return nil
}

// Put overwrites an existing account's bytes in place, preserving its
// owner and lamports.
func (s *Store) Put(pubkey solana.PublicKey, data []byte) error {
	acc, err := s.Get(pubkey)
	if err != nil {
		return err
	}
	acc.Data = data
	s.ledger.accounts[pubkey] = acc
	s.touched[pubkey] = struct{}{}
	return nil
}

// Resize implements resize_account_if_needed (§4.4): growing an account
// tops up lamports from payer by the rent delta; shrinking never refunds.
func (s *Store) Resize(pubkey solana.PublicKey, newLen int, payer solana.PublicKey, rentPerByte uint64) error {
	acc, err := s.Get(pubkey)
	if err != nil {
		return err
	}
	if newLen > len(acc.Data) {
		delta := uint64(newLen-len(acc.Data)) * rentPerByte
		payerAcc, err := s.Get(payer)
		if err != nil {
			return err
		}
		if payerAcc.Lamports < delta {
			return fmt.Errorf("payer %s has insufficient lamports to resize %s", payer, pubkey)
		}
		payerAcc.Lamports -= delta
		acc.Lamports += delta
		s.ledger.accounts[payer] = payerAcc
		grown := make([]byte, newLen)
		copy(grown, acc.Data)
		acc.Data = grown
	} else if newLen < len(acc.Data) {
		acc.Data = acc.Data[:newLen]
	}
	s.ledger.accounts[pubkey] = acc
	s.touched[pubkey] = struct{}{}
	s.touched[payer] = struct{}{}
	return nil
}

// Close implements close_account (§4.4): sweep lamports to receiver,
// truncate data to zero, and reassign ownership to the system program.
// Fails if pubkey is not currently owned by this ledger's program.
func (s *Store) Close(pubkey, receiver solana.PublicKey) error {
	acc, err := s.Get(pubkey)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(s.ledger.programID) {
		return fmt.Errorf("%w: %s owned by %s", ErrWrongOwner, pubkey, acc.Owner)
	}
	recv, err := s.Get(receiver)
	if err != nil {
		recv = Account{Owner: solana.SystemProgramID}
	}
	recv.Lamports += acc.Lamports
	s.ledger.accounts[receiver] = recv
	s.ledger.accounts[pubkey] = Account{Owner: solana.SystemProgramID, Data: nil, Lamports: 0}
	s.touched[pubkey] = struct{}{}
	s.touched[receiver] = struct{}{}
	return nil
}

// Submit runs fn under the ledger's single writer lock and publishes an
// Update naming every account fn touched. Handlers should be small and not
// block — they hold the ledger-wide lock for their whole execution, which
// is the point: it makes every transaction serialize exactly as the real
// program's single-threaded instruction processor would.
func (l *Ledger) Submit(ctx context.Context, fn Handler) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	l.mu.Lock()
	s := &Store{ledger: l, touched: make(map[solana.PublicKey]struct{})}
	err := fn(s)
	if err != nil {
		l.mu.Unlock()
		return "", err
	}

	update := Update{TxID: uuid.NewString(), Accounts: make(map[solana.PublicKey]Account, len(s.touched))}
	for pk := range s.touched {
		update.Accounts[pk] = l.accounts[pk]
	}
	l.mu.Unlock()

	l.publish(update)
	return update.TxID, nil
}

// Subscribe returns a channel of Updates and an unsubscribe func. Matches
// §9 "Ownership of allocator mirrors": observers only ever read from this
// channel, never the account map directly.
func (l *Ledger) Subscribe(name string, buf int) (<-chan Update, func()) {
	ch := make(chan Update, buf)
	l.subMu.Lock()
	l.subs[name] = ch
	l.subMu.Unlock()
	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if c, ok := l.subs[name]; ok {
			delete(l.subs, name)
			close(c)
		}
	}
}

func (l *Ledger) publish(u Update) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Snapshot returns every account currently owned by the ledger's program,
// used by the activator to rebuild its allocator mirrors at boot (I8).
func (l *Ledger) Snapshot() map[solana.PublicKey]Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[solana.PublicKey]Account, len(l.accounts))
	for pk, acc := range l.accounts {
		if acc.Owner.Equals(l.programID) && len(acc.Data) > 0 {
			out[pk] = acc
		}
	}
	return out
}
