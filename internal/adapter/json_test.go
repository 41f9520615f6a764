package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
)

func TestRealJSON_MarshalCanonical(t *testing.T) {
	j := adapter.NewJSON()

	t.Run("sorts keys and drops html escaping", func(t *testing.T) {
		payload := struct {
			Zeta  string `json:"zeta"`
			Alpha int64  `json:"alpha"`
		}{Zeta: "<b>", Alpha: 1}

		out, err := j.MarshalCanonical(payload)
		require.NoError(t, err)
		assert.Equal(t, `{"alpha":1,"zeta":"<b>"}`, string(out))
	})

	t.Run("equal values give equal bytes", func(t *testing.T) {
		a, err := j.MarshalCanonical(map[string]interface{}{"b": []int{1, 2}, "a": "x"})
		require.NoError(t, err)
		b, err := j.MarshalCanonical(map[string]interface{}{"a": "x", "b": []int{1, 2}})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := j.MarshalCanonical(make(chan int))
		assert.Error(t, err)
	})
}

func TestRealJSON_RoundTrip(t *testing.T) {
	j := adapter.NewJSON()

	data, err := j.Marshal(map[string]int64{"amount": 120})
	require.NoError(t, err)

	var out map[string]int64
	require.NoError(t, j.Unmarshal(data, &out))
	assert.Equal(t, int64(120), out["amount"])
}
