package subscriptions_test

import (
	"math/big"
	"net/http"
	"testing"

	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/api/httperrors"
	"github.com/chapool/subflow-agent/internal/contract"
	"github.com/chapool/subflow-agent/internal/test"
	"github.com/chapool/subflow-agent/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	subscriber = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	recipient  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func packSubscription(t *testing.T, subscriber common.Address, nextPayment int64, balance int64, active bool) []byte {
	t.Helper()

	parsed, err := contract.ABI()
	require.NoError(t, err)

	encoded, err := parsed.Methods[contract.MethodGetSubscription].Outputs.Pack(
		subscriber, recipient,
		big.NewInt(1000), big.NewInt(2592000), big.NewInt(nextPayment), big.NewInt(balance), active,
	)
	require.NoError(t, err)

	return encoded
}

func TestGetSubscription(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		due := s.Clock.Now().Unix() - 60
		test.ChainMock(t, s).On("CallContract", mock.Anything, mock.Anything, (*big.Int)(nil)).
			Return(packSubscription(t, subscriber, due, 5000, true), nil).Once()

		res := test.PerformRequest(t, s, "GET", "/api/v1/subscriptions/12", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.SubscriptionResponse
		test.ParseResponseBody(t, res, &response)

		assert.Equal(t, "12", *response.ID)
		assert.Equal(t, subscriber.Hex(), *response.Subscriber)
		assert.Equal(t, recipient.Hex(), *response.Recipient)
		assert.Equal(t, "1000", *response.Amount)
		assert.Equal(t, "2592000", *response.Frequency)
		assert.Equal(t, "5000", *response.Balance)
		assert.True(t, *response.Active)
		assert.True(t, *response.Due)
	})
}

func TestGetSubscriptionNotDueWithoutBalance(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		test.ChainMock(t, s).On("CallContract", mock.Anything, mock.Anything, (*big.Int)(nil)).
			Return(packSubscription(t, subscriber, s.Clock.Now().Unix()-60, 10, true), nil).Once()

		res := test.PerformRequest(t, s, "GET", "/api/v1/subscriptions/12", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.SubscriptionResponse
		test.ParseResponseBody(t, res, &response)
		assert.False(t, *response.Due)
	})
}

func TestGetSubscriptionNotFound(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		test.ChainMock(t, s).On("CallContract", mock.Anything, mock.Anything, (*big.Int)(nil)).
			Return(packSubscription(t, common.Address{}, 0, 0, false), nil).Once()

		res := test.PerformRequest(t, s, "GET", "/api/v1/subscriptions/999", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrNotFoundSubscription)
	})
}

func TestGetSubscriptionInvalidID(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/subscriptions/abc", nil, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)

		test.ChainMock(t, s).AssertNotCalled(t, "CallContract", mock.Anything, mock.Anything, mock.Anything)
	})
}
