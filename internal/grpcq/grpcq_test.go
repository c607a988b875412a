package grpcq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/ledger"
)

type testEnv struct {
	machine *market.Machine
	native  *ledger.MemoryNative
	dist    *fees.Distributor
	server  *Server
	conn    *grpc.ClientConn
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens := ledger.NewMemoryTokens()
	native := ledger.NewMemoryNative()
	dist := fees.NewDistributor(fees.DefaultParams(), native, "curve:vault", events.NoOp{}, nil)
	machine := market.NewMachine(market.DefaultConfig(), market.Deps{
		Tokens: tokens,
		Native: native,
		Fees:   dist,
		Events: events.NoOp{},
	})

	server, err := NewServer(&ServerConfig{
		Address:        "127.0.0.1:0",
		MaxRecvMsgSize: 1 << 20,
		MaxSendMsgSize: 1 << 20,
	}, Deps{
		Machine: machine,
		Dist:    dist,
		Log:     zap.NewNop(),
		Version: "0.3.0-test",
	})
	require.NoError(t, err)
	require.NoError(t, server.StartAsync())
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(server.Address(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testEnv{machine: machine, native: native, dist: dist, server: server, conn: conn}
}

func (e *testEnv) invoke(t *testing.T, method string, req, resp interface{}) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp)
}

func (e *testEnv) launch(t *testing.T, creator, symbol string) assetid.AssetID {
	t.Helper()
	asset, res := e.machine.CreateAsset(context.Background(), market.AssetDef{
		Creator: creator,
		Symbol:  symbol,
		Name:    symbol + " Token",
		Salt:    1,
	})
	require.True(t, res.IsApplied(), res.String())
	return asset.ID
}

func (e *testEnv) buy(t *testing.T, id assetid.AssetID, buyer string, whole uint64) market.BuyReceipt {
	t.Helper()
	require.NoError(t, e.native.Credit(context.Background(), buyer, amount.FromWhole(whole)))
	rcpt := e.machine.Buy(context.Background(), market.BuyRequest{
		Asset: id,
		Buyer: buyer,
		EthIn: amount.FromWhole(whole),
	})
	require.True(t, rcpt.Result.IsApplied(), rcpt.Result.String())
	return rcpt
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestGetServerInfo(t *testing.T) {
	env := newTestEnv(t)
	env.launch(t, "alice", "WIDGET")
	env.launch(t, "bob", "GADGET")

	var resp GetServerInfoResponse
	require.NoError(t, env.invoke(t, "GetServerInfo", &GetServerInfoRequest{}, &resp))

	assert.Equal(t, "0.3.0-test", resp.Version)
	assert.Equal(t, 2, resp.Assets)
	assert.Equal(t, 2, resp.Open)
	assert.Equal(t, 0, resp.Graduated)
	assert.Equal(t, market.DefaultConfig().TradeFeeBps, resp.TradeFeeBps)
}

func TestGetAsset(t *testing.T) {
	env := newTestEnv(t)
	id := env.launch(t, "alice", "WIDGET")

	var resp GetAssetResponse
	require.NoError(t, env.invoke(t, "GetAsset", &GetAssetRequest{Asset: id.String()}, &resp))

	assert.Equal(t, id, resp.Asset)
	assert.Equal(t, "alice", resp.Creator)
	assert.Equal(t, "WIDGET", resp.Symbol)
	assert.True(t, resp.Open)
	assert.False(t, resp.SellsEnabled)
	assert.False(t, resp.Graduated)
	assert.True(t, resp.Sold.IsZero())
	assert.True(t, resp.Price.IsPositive())
	assert.EqualValues(t, 0, resp.ProgressBps)

	t.Run("unknown asset", func(t *testing.T) {
		var out GetAssetResponse
		err := env.invoke(t, "GetAsset", &GetAssetRequest{
			Asset: "00112233445566778899aabbccddeeff00112233",
		}, &out)
		requireCode(t, err, codes.NotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		var out GetAssetResponse
		err := env.invoke(t, "GetAsset", &GetAssetRequest{Asset: "zz"}, &out)
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("missing id", func(t *testing.T) {
		var out GetAssetResponse
		err := env.invoke(t, "GetAsset", &GetAssetRequest{}, &out)
		requireCode(t, err, codes.InvalidArgument)
	})
}

func TestListAssets(t *testing.T) {
	env := newTestEnv(t)
	env.launch(t, "alice", "WIDGET")
	closed := env.launch(t, "bob", "GADGET")
	res := env.machine.Close(context.Background(), closed)
	require.True(t, res.IsApplied(), res.String())

	var all ListAssetsResponse
	require.NoError(t, env.invoke(t, "ListAssets", &ListAssetsRequest{}, &all))
	assert.Equal(t, 2, all.Count)
	assert.Len(t, all.Assets, 2)

	var open ListAssetsResponse
	require.NoError(t, env.invoke(t, "ListAssets", &ListAssetsRequest{OnlyOpen: true}, &open))
	require.Equal(t, 1, open.Count)
	assert.Equal(t, "WIDGET", open.Assets[0].Symbol)
}

func TestGetQuote(t *testing.T) {
	env := newTestEnv(t)
	id := env.launch(t, "alice", "WIDGET")
	oneEth := amount.FromWhole(1)

	var quote GetQuoteResponse
	require.NoError(t, env.invoke(t, "GetQuote", &GetQuoteRequest{
		Asset:  id.String(),
		Side:   "buy",
		Amount: oneEth,
	}, &quote))

	assert.Equal(t, "buy", quote.Side)
	assert.True(t, quote.Tokens.IsPositive())
	assert.True(t, quote.Fee.IsPositive())
	assert.True(t, quote.PriceAfter.IsPositive())

	direct, res := env.machine.QuoteBuy(id, oneEth)
	require.True(t, res.IsSuccess())
	assert.Equal(t, direct.Tokens.String(), quote.Tokens.String())
	assert.Equal(t, direct.Fee.String(), quote.Fee.String())

	t.Run("zero amount", func(t *testing.T) {
		var out GetQuoteResponse
		err := env.invoke(t, "GetQuote", &GetQuoteRequest{
			Asset: id.String(),
			Side:  "buy",
		}, &out)
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("bad side", func(t *testing.T) {
		var out GetQuoteResponse
		err := env.invoke(t, "GetQuote", &GetQuoteRequest{
			Asset:  id.String(),
			Side:   "hold",
			Amount: oneEth,
		}, &out)
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("unknown asset", func(t *testing.T) {
		var out GetQuoteResponse
		err := env.invoke(t, "GetQuote", &GetQuoteRequest{
			Asset:  "00112233445566778899aabbccddeeff00112233",
			Side:   "buy",
			Amount: oneEth,
		}, &out)
		requireCode(t, err, codes.NotFound)
	})
}

func TestAssetProgressAfterBuy(t *testing.T) {
	env := newTestEnv(t)
	id := env.launch(t, "alice", "WIDGET")
	rcpt := env.buy(t, id, "bob", 1)

	var resp GetAssetResponse
	require.NoError(t, env.invoke(t, "GetAsset", &GetAssetRequest{Asset: id.String()}, &resp))

	assert.Equal(t, rcpt.Sold.String(), resp.Sold.String())
	assert.Equal(t, rcpt.Raised.String(), resp.Raised.String())
	assert.NotZero(t, resp.ProgressBps)
}

func TestGetFeeLedger(t *testing.T) {
	env := newTestEnv(t)
	id := env.launch(t, "alice", "WIDGET")
	env.buy(t, id, "bob", 1)

	var resp GetFeeLedgerResponse
	require.NoError(t, env.invoke(t, "GetFeeLedger", &GetFeeLedgerRequest{}, &resp))

	assert.True(t, resp.PlatformTotal.IsPositive())
	assert.Contains(t, resp.CreatorClaims, "alice")
	assert.True(t, resp.CreatorClaims["alice"].IsPositive())
}

func TestHistoryUnconfigured(t *testing.T) {
	env := newTestEnv(t)
	id := env.launch(t, "alice", "WIDGET")

	var trades GetTradesResponse
	err := env.invoke(t, "GetTrades", &GetTradesRequest{Asset: id.String()}, &trades)
	requireCode(t, err, codes.Unimplemented)

	var stats GetStatsResponse
	err = env.invoke(t, "GetStats", &GetStatsRequest{Asset: id.String()}, &stats)
	requireCode(t, err, codes.Unimplemented)
}

func TestServerLifecycle(t *testing.T) {
	env := newTestEnv(t)

	assert.True(t, env.server.IsRunning())
	assert.NotEmpty(t, env.server.Address())
	assert.Error(t, env.server.StartAsync())

	env.server.Stop()
	assert.False(t, env.server.IsRunning())
}

func TestNewServerValidation(t *testing.T) {
	tokens := ledger.NewMemoryTokens()
	native := ledger.NewMemoryNative()
	dist := fees.NewDistributor(fees.DefaultParams(), native, "curve:vault", events.NoOp{}, nil)
	machine := market.NewMachine(market.DefaultConfig(), market.Deps{
		Tokens: tokens,
		Native: native,
		Fees:   dist,
		Events: events.NoOp{},
	})

	t.Run("requires machine", func(t *testing.T) {
		_, err := NewServer(DefaultServerConfig(), Deps{Dist: dist})
		require.Error(t, err)
	})

	t.Run("requires distributor", func(t *testing.T) {
		_, err := NewServer(DefaultServerConfig(), Deps{Machine: machine})
		require.Error(t, err)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		srv, err := NewServer(nil, Deps{Machine: machine, Dist: dist})
		require.NoError(t, err)
		assert.False(t, srv.IsRunning())
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *ServerConfig) {}},
		{name: "empty address", mutate: func(c *ServerConfig) { c.Address = "" }, wantErr: true},
		{name: "no port", mutate: func(c *ServerConfig) { c.Address = "127.0.0.1" }, wantErr: true},
		{name: "zero recv size", mutate: func(c *ServerConfig) { c.MaxRecvMsgSize = 0 }, wantErr: true},
		{name: "negative send size", mutate: func(c *ServerConfig) { c.MaxSendMsgSize = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
