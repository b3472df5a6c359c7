package serializers

import (
	"testing"
	"time"

	"stock-data-service/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestJSONSerializer_StockPrice(t *testing.T) {
	s := NewJSONSerializer()
	at := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
	in := &models.StockPrice{
		Stock:         &models.Stock{StockId: "FB", StockName: "Facebook"},
		Price:         321,
		DateTimeStamp: timestamppb.New(at),
	}

	data, err := s.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stockId":"FB"`)

	var out models.StockPrice
	require.NoError(t, s.Unmarshal(data, &out))
	assert.Equal(t, "FB", out.GetStockId())
	assert.Equal(t, int32(321), out.Price)
	assert.True(t, at.Equal(out.Time()))
}

func TestJSONSerializer_UnresolvedStockOmitted(t *testing.T) {
	data, err := NewJSONSerializer().Marshal(&models.StockPrice{Price: 100})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"stock":`)
}

func TestJSONSerializer_Empty(t *testing.T) {
	s := NewJSONSerializer()
	data, err := s.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	require.NoError(t, s.Unmarshal(nil, &emptypb.Empty{}))
	require.NoError(t, s.Unmarshal(data, &emptypb.Empty{}))
}

func TestJSONSerializer_Invalid(t *testing.T) {
	var out models.Stock
	err := NewJSONSerializer().Unmarshal([]byte("{"), &out)
	assert.ErrorContains(t, err, "json unmarshal error")
	assert.Equal(t, "json", NewJSONSerializer().Name())
}
