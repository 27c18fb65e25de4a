package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aatishgupta25/real-time-order-matching-engine/pkg/questdb"
	mock "github.com/aatishgupta25/real-time-order-matching-engine/pkg/questdb/mock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// txRecorder stubs the pgx.Tx methods the repository routes through a
// context transaction.
type txRecorder struct {
	pgx.Tx
	execCalls int
	copyCalls int
	copyRows  int64
}

func (t *txRecorder) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	t.execCalls++
	return pgconn.CommandTag{}, nil
}

func (t *txRecorder) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	t.copyCalls++
	for src.Next() {
		if _, err := src.Values(); err != nil {
			return t.copyRows, err
		}
		t.copyRows++
	}
	return t.copyRows, nil
}

// fakeRow stubs pgx.Row for single-row queries.
type fakeRow struct {
	scanFn func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scanFn(dest...)
}

func testArchivedTrade() *ArchivedTrade {
	return &ArchivedTrade{
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TradeID:   "trade-1",
		Symbol:    "BTC-USD",
		Price:     150,
		Quantity:  10,
		Buyer:     "buyer",
		Seller:    "seller",
		TakerSide: "buy",
	}
}

func TestTradeRepository_Store(t *testing.T) {
	query := `INSERT INTO trades (timestamp, trade_id, symbol, price, quantity, buyer, seller, taker_side)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	testCases := []struct {
		name     string
		mockFn   func(trade *ArchivedTrade, mock *mock.MockQuestDBClient)
		assertFn func(t *testing.T, err error)
		trade    *ArchivedTrade
	}{
		{
			name: "success",
			mockFn: func(trade *ArchivedTrade, mock *mock.MockQuestDBClient) {
				mock.EXPECT().Exec(gomock.Any(), query, trade.Timestamp, trade.TradeID, trade.Symbol,
					trade.Price, trade.Quantity, trade.Buyer, trade.Seller, trade.TakerSide).Return(nil)
			},
			trade: testArchivedTrade(),
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "error",
			mockFn: func(trade *ArchivedTrade, mock *mock.MockQuestDBClient) {
				mock.EXPECT().Exec(gomock.Any(), query, trade.Timestamp, trade.TradeID, trade.Symbol,
					trade.Price, trade.Quantity, trade.Buyer, trade.Seller, trade.TakerSide).Return(errors.New("error"))
			},
			trade: testArchivedTrade(),
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mock.NewMockQuestDBClient(ctrl)
			tc.mockFn(tc.trade, mock)

			repo := NewRepository(mock)
			err := repo.Store(context.Background(), tc.trade)
			tc.assertFn(t, err)
		})
	}
}

func TestTradeRepository_StoreBatch(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(trades []*ArchivedTrade, mock *mock.MockQuestDBClient)
		assertFn func(t *testing.T, err error)
		trades   []*ArchivedTrade
	}{
		{
			name: "success",
			mockFn: func(trades []*ArchivedTrade, mock *mock.MockQuestDBClient) {
				mock.EXPECT().CopyFrom(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
			},
			trades: []*ArchivedTrade{testArchivedTrade()},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "empty batch skips the write",
			mockFn: func(trades []*ArchivedTrade, mock *mock.MockQuestDBClient) {
			},
			trades: nil,
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "error",
			mockFn: func(trades []*ArchivedTrade, mock *mock.MockQuestDBClient) {
				mock.EXPECT().CopyFrom(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("error"))
			},
			trades: []*ArchivedTrade{testArchivedTrade()},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mock.NewMockQuestDBClient(ctrl)
			tc.mockFn(tc.trades, mock)

			repo := NewRepository(mock)
			err := repo.StoreBatch(context.Background(), tc.trades)
			tc.assertFn(t, err)
		})
	}
}

func TestTradeRepository_GetByFilter(t *testing.T) {
	now := time.Now()
	query := "SELECT timestamp, trade_id, symbol, price, quantity, buyer, seller, taker_side FROM trades WHERE 1=1"
	testCases := []struct {
		name     string
		mockFn   func(mock *mock.MockQuestDBClient, mockRows *mock.MockRowsInterface)
		assertFn func(t *testing.T, err error, trades []*ArchivedTrade)
		filter   Filter
	}{
		{
			name: "success with all filters",
			mockFn: func(mock *mock.MockQuestDBClient, mockRows *mock.MockRowsInterface) {
				mock.EXPECT().Query(
					gomock.Any(),
					query+" AND symbol = $1 AND (buyer = $2 OR seller = $2) AND timestamp >= $3 AND timestamp <= $4 ORDER BY timestamp DESC LIMIT $5 OFFSET $6",
					[]interface{}{"BTC-USD", "user1", now, now, 10, 1},
				).Return(mockRows, nil)

				mockRows.EXPECT().Next().Return(true)
				mockRows.EXPECT().Scan(gomock.Any()).DoAndReturn(func(dest ...any) error {
					*dest[0].(*time.Time) = now
					*dest[1].(*string) = "trade-1"
					*dest[2].(*string) = "BTC-USD"
					*dest[3].(*int64) = 150
					*dest[4].(*int64) = 10
					*dest[5].(*string) = "user1"
					*dest[6].(*string) = "seller"
					*dest[7].(*string) = "buy"
					return nil
				})
				mockRows.EXPECT().Next().Return(false)
				mockRows.EXPECT().Err().Return(nil)
				mockRows.EXPECT().Close()
			},
			filter: Filter{Symbol: "BTC-USD", User: "user1", From: &now, To: &now, Limit: 10, Offset: 1},
			assertFn: func(t *testing.T, err error, trades []*ArchivedTrade) {
				assert.NoError(t, err)
				assert.Len(t, trades, 1)
				assert.Equal(t, "trade-1", trades[0].TradeID)
			},
		},
		{
			name: "no rows",
			mockFn: func(mock *mock.MockQuestDBClient, mockRows *mock.MockRowsInterface) {
				mock.EXPECT().Query(gomock.Any(), query+" AND symbol = $1 ORDER BY timestamp DESC", gomock.Any()).Return(mockRows, nil)

				mockRows.EXPECT().Next().Return(false)
				mockRows.EXPECT().Err().Return(nil)
				mockRows.EXPECT().Close()
			},
			filter: Filter{Symbol: "NONE"},
			assertFn: func(t *testing.T, err error, trades []*ArchivedTrade) {
				assert.NoError(t, err)
				assert.Len(t, trades, 0)
			},
		},
		{
			name: "query fails",
			mockFn: func(mock *mock.MockQuestDBClient, mockRows *mock.MockRowsInterface) {
				mock.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("query failed"))
			},
			filter: Filter{Symbol: "BTC-USD"},
			assertFn: func(t *testing.T, err error, trades []*ArchivedTrade) {
				assert.Error(t, err)
				assert.Nil(t, trades)
			},
		},
		{
			name: "scan fails",
			mockFn: func(mock *mock.MockQuestDBClient, mockRows *mock.MockRowsInterface) {
				mock.EXPECT().Query(gomock.Any(), query+" AND symbol = $1 ORDER BY timestamp DESC", gomock.Any()).Return(mockRows, nil)

				mockRows.EXPECT().Next().Return(true)
				mockRows.EXPECT().Scan(gomock.Any()).Return(errors.New("scan failed"))
				mockRows.EXPECT().Close()
			},
			filter: Filter{Symbol: "BTC-USD"},
			assertFn: func(t *testing.T, err error, trades []*ArchivedTrade) {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "scan failed")
			},
		},
		{
			name: "iteration error",
			mockFn: func(mock *mock.MockQuestDBClient, mockRows *mock.MockRowsInterface) {
				mock.EXPECT().Query(gomock.Any(), query+" AND symbol = $1 ORDER BY timestamp DESC", gomock.Any()).Return(mockRows, nil)

				mockRows.EXPECT().Next().Return(false)
				mockRows.EXPECT().Err().Return(errors.New("iteration error"))
				mockRows.EXPECT().Close()
			},
			filter: Filter{Symbol: "BTC-USD"},
			assertFn: func(t *testing.T, err error, trades []*ArchivedTrade) {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "iteration error")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := mock.NewMockQuestDBClient(ctrl)
			mockRows := mock.NewMockRowsInterface(ctrl)
			tc.mockFn(mockClient, mockRows)

			repo := NewRepository(mockClient)
			trades, err := repo.GetByFilter(context.Background(), tc.filter)
			tc.assertFn(t, err, trades)
		})
	}
}

func TestTradeRepository_WritesUseContextTransaction(t *testing.T) {
	t.Run("store batch routes through the transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		client := mock.NewMockQuestDBClient(ctrl)
		tx := &txRecorder{}
		client.EXPECT().Begin(gomock.Any()).Return(tx, nil)

		txCtx, err := questdb.Begin(context.Background(), client)
		require.NoError(t, err)

		repo := NewRepository(client)
		trades := []*ArchivedTrade{testArchivedTrade(), testArchivedTrade()}
		require.NoError(t, repo.StoreBatch(txCtx, trades))

		assert.Equal(t, 1, tx.copyCalls)
		assert.Equal(t, int64(2), tx.copyRows)
	})

	t.Run("store routes through the transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		client := mock.NewMockQuestDBClient(ctrl)
		tx := &txRecorder{}
		client.EXPECT().Begin(gomock.Any()).Return(tx, nil)

		txCtx, err := questdb.Begin(context.Background(), client)
		require.NoError(t, err)

		repo := NewRepository(client)
		require.NoError(t, repo.Store(txCtx, testArchivedTrade()))

		assert.Equal(t, 1, tx.execCalls)
	})
}

func TestTradeRepository_GetLatestBySymbol(t *testing.T) {
	expected := testArchivedTrade()

	testCases := []struct {
		name     string
		mockFn   func(mock *mock.MockQuestDBClient)
		assertFn func(t *testing.T, trade *ArchivedTrade, err error)
	}{
		{
			name: "success",
			mockFn: func(mock *mock.MockQuestDBClient) {
				mock.EXPECT().QueryRow(gomock.Any(), gomock.Any(), "BTC-USD").Return(fakeRow{
					scanFn: func(dest ...any) error {
						*(dest[0].(*time.Time)) = expected.Timestamp
						*(dest[1].(*string)) = expected.TradeID
						*(dest[2].(*string)) = expected.Symbol
						*(dest[3].(*int64)) = expected.Price
						*(dest[4].(*int64)) = expected.Quantity
						*(dest[5].(*string)) = expected.Buyer
						*(dest[6].(*string)) = expected.Seller
						*(dest[7].(*string)) = expected.TakerSide
						return nil
					},
				})
			},
			assertFn: func(t *testing.T, trade *ArchivedTrade, err error) {
				assert.NoError(t, err)
				assert.Equal(t, expected, trade)
			},
		},
		{
			name: "no trades for symbol",
			mockFn: func(mock *mock.MockQuestDBClient) {
				mock.EXPECT().QueryRow(gomock.Any(), gomock.Any(), "BTC-USD").Return(fakeRow{
					scanFn: func(dest ...any) error {
						return pgx.ErrNoRows
					},
				})
			},
			assertFn: func(t *testing.T, trade *ArchivedTrade, err error) {
				assert.NoError(t, err)
				assert.Nil(t, trade)
			},
		},
		{
			name: "query fails",
			mockFn: func(mock *mock.MockQuestDBClient) {
				mock.EXPECT().QueryRow(gomock.Any(), gomock.Any(), "BTC-USD").Return(fakeRow{
					scanFn: func(dest ...any) error {
						return errors.New("connection reset")
					},
				})
			},
			assertFn: func(t *testing.T, trade *ArchivedTrade, err error) {
				assert.Error(t, err)
				assert.Nil(t, trade)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mock.NewMockQuestDBClient(ctrl)
			tc.mockFn(mock)

			repo := NewRepository(mock)
			trade, err := repo.GetLatestBySymbol(context.Background(), "BTC-USD")
			tc.assertFn(t, trade, err)
		})
	}
}

func TestTradeRepository_GetVolumeBySymbol(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		mockFn   func(mock *mock.MockQuestDBClient)
		assertFn func(t *testing.T, volume int64, err error)
	}{
		{
			name: "success",
			mockFn: func(mock *mock.MockQuestDBClient) {
				mock.EXPECT().QueryRow(gomock.Any(), gomock.Any(), "BTC-USD", from, to).Return(fakeRow{
					scanFn: func(dest ...any) error {
						*(dest[0].(*int64)) = 42
						return nil
					},
				})
			},
			assertFn: func(t *testing.T, volume int64, err error) {
				assert.NoError(t, err)
				assert.Equal(t, int64(42), volume)
			},
		},
		{
			name: "query fails",
			mockFn: func(mock *mock.MockQuestDBClient) {
				mock.EXPECT().QueryRow(gomock.Any(), gomock.Any(), "BTC-USD", from, to).Return(fakeRow{
					scanFn: func(dest ...any) error {
						return errors.New("connection reset")
					},
				})
			},
			assertFn: func(t *testing.T, volume int64, err error) {
				assert.Error(t, err)
				assert.Zero(t, volume)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := mock.NewMockQuestDBClient(ctrl)
			tc.mockFn(mock)

			repo := NewRepository(mock)
			volume, err := repo.GetVolumeBySymbol(context.Background(), "BTC-USD", from, to)
			tc.assertFn(t, volume, err)
		})
	}
}
