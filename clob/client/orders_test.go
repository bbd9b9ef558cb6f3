package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuestmarket/kuest-go/clob/types"
)

func TestParseOrderResponse_Shapes(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantID   string
		wantErr  string
		parseErr bool
	}{
		{name: "bare object", body: `{"success":true,"orderID":"0x1"}`, wantID: "0x1"},
		{name: "alternate id spelling", body: `{"orderId":"0x2"}`, wantID: "0x2"},
		{name: "data wrapped", body: `{"data":{"orderID":"0x3"}}`, wantID: "0x3"},
		{name: "array", body: `[{"orderID":"0x4"}]`, wantID: "0x4"},
		{name: "empty array", body: `[]`},
		{name: "error field", body: `{"error":"order expired"}`, wantErr: "order expired"},
		{name: "errorMsg field", body: `{"errorMsg":"bad things"}`, wantErr: "bad things"},
		{name: "message field", body: `{"message":"nope"}`, wantErr: "nope"},
		{name: "wrapped error", body: `{"data":{"error":"no"}}`, wantErr: "no"},
		{name: "empty body", body: ``},
		{name: "garbage", body: `<html>`, parseErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := parseOrderResponse([]byte(tc.body))
			if tc.parseErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, resp.ResolvedOrderID())
			assert.Equal(t, tc.wantErr, resp.RawError())
		})
	}
}

func TestParseOrderResponse_ErrorFieldPrecedence(t *testing.T) {
	resp, err := parseOrderResponse([]byte(`{"error":"a","errorMsg":"b","message":"c"}`))
	require.NoError(t, err)
	assert.Equal(t, "a", resp.RawError())
}

func TestParseOpenOrdersPage_Shapes(t *testing.T) {
	page, err := parseOpenOrdersPage([]byte(`{"data":[{"id":"o1"}],"next_cursor":"abc","count":1}`))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "o1", page.Data[0].ID)
	assert.Equal(t, "abc", page.NextCursor)

	bare, err := parseOpenOrdersPage([]byte(`[{"id":"o2"},{"id":"o3"}]`))
	require.NoError(t, err)
	assert.Len(t, bare.Data, 2)
	assert.Empty(t, bare.NextCursor)
}

func TestGetAllOpenOrders_WalksPagination(t *testing.T) {
	var cursors []string
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/orders", r.URL.Path)
		require.Equal(t, "cond-1", r.URL.Query().Get("market"))

		cursor := r.URL.Query().Get("next_cursor")
		cursors = append(cursors, cursor)

		switch cursor {
		case "":
			json.NewEncoder(w).Encode(types.OpenOrdersPage{
				Data:       []types.OpenOrder{{ID: "o1"}, {ID: "o2"}},
				NextCursor: "page2",
			})
		case "page2":
			json.NewEncoder(w).Encode(types.OpenOrdersPage{
				Data:       []types.OpenOrder{{ID: "o3"}},
				NextCursor: endOfCursor,
			})
		default:
			t.Fatalf("unexpected cursor %q", cursor)
		}
	}))

	orders, err := c.GetAllOpenOrders(context.Background(), &types.OpenOrderParams{Market: "cond-1"})
	require.NoError(t, err)

	require.Len(t, orders, 3)
	assert.Equal(t, []string{"", "page2"}, cursors)
	assert.Equal(t, "o3", orders[2].ID)
}

func TestCancelOrder_SendsID(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xabc", body["orderID"])
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	resp, err := c.CancelOrder(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestCancelOrder_NonOKStatus(t *testing.T) {
	c, _ := serverClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "order not found"})
	}))

	_, err := c.CancelOrder(context.Background(), "0xmissing")
	assert.ErrorContains(t, err, "order not found")
}

func TestPostOrder_RequiresCreds(t *testing.T) {
	c := NewClient(Config{Host: "https://clob.example.com", ChainID: types.ChainAmoy})
	_, err := c.PostOrder(context.Background(), &types.SignedOrder{}, types.OrderTypeGTC)
	assert.ErrorIs(t, err, ErrTradingDisabled)
}
