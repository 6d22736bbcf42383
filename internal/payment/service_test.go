package payment_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/common"
	"github.com/impulse-eee/impulse-api/internal/payment"
)

type stubStore struct {
	completedCalls int
	failedCalls    int
	transitioned   bool
	err            error
	errOnce        bool
	lastID         string
	lastOrderID    string
	lastPaymentID  string
}

func (s *stubStore) MarkCompleted(_ context.Context, id, orderID, paymentID string) (bool, error) {
	s.completedCalls++
	s.lastID = id
	s.lastOrderID = orderID
	s.lastPaymentID = paymentID
	if s.err != nil {
		err := s.err
		if s.errOnce {
			s.err = nil
		}
		return false, err
	}
	return s.transitioned, nil
}

func (s *stubStore) MarkFailed(_ context.Context, id string) (bool, error) {
	s.failedCalls++
	s.lastID = id
	return s.transitioned, s.err
}

type stubNotifier struct {
	calls int
	ids   []string
	err   error
}

func (n *stubNotifier) EnqueueConfirmation(_ context.Context, registrationID string) error {
	n.calls++
	n.ids = append(n.ids, registrationID)
	return n.err
}

func validInput(secret string) payment.VerifyInput {
	return payment.VerifyInput{
		OrderID:        "order_abc",
		PaymentID:      "pay_xyz",
		Signature:      payment.ComputeSignature(secret, "order_abc", "pay_xyz"),
		RegistrationID: "reg-1",
	}
}

func TestVerifyFirstTransitionNotifiesOnce(t *testing.T) {
	store := &stubStore{transitioned: true}
	notifier := &stubNotifier{}
	svc := &payment.Service{Secret: "s3cr3t", Store: store, Notify: notifier}

	result, err := svc.Verify(context.Background(), validInput("s3cr3t"))
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "pay_xyz", result.PaymentID)
	require.Equal(t, 1, store.completedCalls)
	require.Equal(t, "reg-1", store.lastID)
	require.Equal(t, "order_abc", store.lastOrderID)
	require.Equal(t, 1, notifier.calls)
}

func TestVerifyReplaySucceedsWithoutNotify(t *testing.T) {
	// already completed: guarded update reports no transition
	store := &stubStore{transitioned: false}
	notifier := &stubNotifier{}
	svc := &payment.Service{Secret: "s3cr3t", Store: store, Notify: notifier}

	result, err := svc.Verify(context.Background(), validInput("s3cr3t"))
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "pay_xyz", result.PaymentID)
	require.Zero(t, notifier.calls)
}

func TestVerifyInvalidSignatureTouchesNothing(t *testing.T) {
	store := &stubStore{transitioned: true}
	notifier := &stubNotifier{}
	svc := &payment.Service{Secret: "s3cr3t", Store: store, Notify: notifier}

	input := validInput("s3cr3t")
	input.Signature = payment.ComputeSignature("wrong", "order_abc", "pay_xyz")
	result, err := svc.Verify(context.Background(), input)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Zero(t, store.completedCalls)
	require.Zero(t, notifier.calls)
}

func TestVerifyStoreFailureStillSucceeds(t *testing.T) {
	store := &stubStore{err: errors.New("connection reset")}
	notifier := &stubNotifier{}
	svc := &payment.Service{Secret: "s3cr3t", Store: store, Notify: notifier}

	result, err := svc.Verify(context.Background(), validInput("s3cr3t"))
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "pay_xyz", result.PaymentID)
	require.Zero(t, notifier.calls)
}

func TestVerifyNotifierFailureDoesNotPropagate(t *testing.T) {
	store := &stubStore{transitioned: true}
	notifier := &stubNotifier{err: errors.New("redis down")}
	svc := &payment.Service{Secret: "s3cr3t", Store: store, Notify: notifier}

	result, err := svc.Verify(context.Background(), validInput("s3cr3t"))
	require.NoError(t, err)
	require.True(t, result.Valid)
}

func TestVerifyMissingSecret(t *testing.T) {
	svc := &payment.Service{Store: &stubStore{}}
	_, err := svc.Verify(context.Background(), validInput("s3cr3t"))
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "PAYMENT_NOT_CONFIGURED", appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestVerifyReplayGuardShortCircuitsStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &stubStore{transitioned: true}
	notifier := &stubNotifier{}
	svc := &payment.Service{
		Secret:    "s3cr3t",
		Store:     store,
		Notify:    notifier,
		Redis:     client,
		ReplayTTL: time.Minute,
		Prefix:    "test",
	}

	input := validInput("s3cr3t")
	first, err := svc.Verify(context.Background(), input)
	require.NoError(t, err)
	require.True(t, first.Valid)
	require.Equal(t, 1, store.completedCalls)

	second, err := svc.Verify(context.Background(), input)
	require.NoError(t, err)
	require.True(t, second.Valid)
	require.Equal(t, "pay_xyz", second.PaymentID)
	require.Equal(t, 1, store.completedCalls)
	require.Equal(t, 1, notifier.calls)
}

func TestVerifyRetryAfterStoreErrorHealsRow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// first callback hits a transient store failure, the gateway retries
	store := &stubStore{transitioned: true, err: errors.New("connection reset"), errOnce: true}
	notifier := &stubNotifier{}
	svc := &payment.Service{
		Secret:    "s3cr3t",
		Store:     store,
		Notify:    notifier,
		Redis:     client,
		ReplayTTL: time.Minute,
		Prefix:    "test",
	}

	input := validInput("s3cr3t")
	first, err := svc.Verify(context.Background(), input)
	require.NoError(t, err)
	require.True(t, first.Valid)
	require.Equal(t, 1, store.completedCalls)
	require.Zero(t, notifier.calls)

	second, err := svc.Verify(context.Background(), input)
	require.NoError(t, err)
	require.True(t, second.Valid)
	require.Equal(t, 2, store.completedCalls)
	require.Equal(t, 1, notifier.calls)
}

func TestCancelOnlyTransitionsPending(t *testing.T) {
	store := &stubStore{transitioned: true}
	svc := &payment.Service{Secret: "s3cr3t", Store: store}

	ok, err := svc.Cancel(context.Background(), "reg-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, store.failedCalls)

	store.transitioned = false
	ok, err = svc.Cancel(context.Background(), "reg-1")
	require.NoError(t, err)
	require.False(t, ok)
}
