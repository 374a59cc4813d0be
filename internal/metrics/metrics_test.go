package metrics

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/types"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *types.Report {
	started := time.Now().Add(-3 * time.Second)
	return &types.Report{
		RunID:      uuid.New(),
		Network:    "testnet",
		Total:      big.NewInt(350),
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Results: []types.MessageResult{
			{Index: 0, Status: types.StatusSuccess},
			{Index: 1, Status: types.StatusSuccess},
			{Index: 2, Status: types.StatusUnknown},
			{Index: 3, Status: types.StatusSkipped},
		},
	}
}

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(testReport())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("skipped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.messages.WithLabelValues("pending")))
	assert.Equal(t, 350.0, testutil.ToFloat64(m.total))
	assert.InDelta(t, 3.0, testutil.ToFloat64(m.duration), 0.001)
}

func TestPusher_Record(t *testing.T) {
	var body string
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := New()
	err := NewPusher(m, server.URL).Record(context.Background(), testReport())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "/metrics/job/"+JobName), path)
	assert.Contains(t, path, "network/testnet")
	assert.NotEmpty(t, body)
}
