package ledger

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	l := New(programID)
	pk := solana.NewWallet().PublicKey()

	_, err := l.Submit(context.Background(), func(s *Store) error {
		return s.Create(pk, programID, []byte{1, 2, 3}, 1000)
	})
	require.NoError(t, err)

	acc, err := l.Submit(context.Background(), func(s *Store) error {
		got, err := s.Get(pk)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, got.Data)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, acc)
}

func TestCreateDuplicateFails(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	l := New(programID)
	pk := solana.NewWallet().PublicKey()

	_, err := l.Submit(context.Background(), func(s *Store) error {
		return s.Create(pk, programID, []byte{1}, 0)
	})
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), func(s *Store) error {
		return s.Create(pk, programID, []byte{2}, 0)
	})
	require.ErrorIs(t, err, ErrAccountAlreadyExists)
}

func TestCloseAccount(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	l := New(programID)
	pk := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()

	_, err := l.Submit(context.Background(), func(s *Store) error {
		return s.Create(pk, programID, []byte{1, 2, 3}, 500)
	})
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), func(s *Store) error {
		return s.Close(pk, receiver)
	})
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), func(s *Store) error {
		_, err := s.Get(pk)
		return err
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSubscribePublishesTouchedAccounts(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	l := New(programID)
	pk := solana.NewWallet().PublicKey()

	updates, unsub := l.Subscribe("observer", 4)
	defer unsub()

	_, err := l.Submit(context.Background(), func(s *Store) error {
		return s.Create(pk, programID, []byte{9}, 0)
	})
	require.NoError(t, err)

	select {
	case u := <-updates:
		_, ok := u.Accounts[pk]
		require.True(t, ok)
	default:
		t.Fatal("expected an update to be published")
	}
}
