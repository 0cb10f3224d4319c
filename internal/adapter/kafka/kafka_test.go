package kafka

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isossa/routematrix/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)
	event := domain.MatrixComputed{
		CoordinateCount: 3,
		Metric:          domain.MetricTravelDuration,
		TravelMode:      "driving",
		FromCache:       true,
		ComputedAt:      now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	_, err = uuid.Parse(string(msg.Key))
	require.NoError(t, err)

	assert.Contains(t, string(msg.Value), `"metric":"travelDuration"`)
	assert.Contains(t, string(msg.Value), `"from_cache":true`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "metric", msg.Headers[0].Key)
	assert.Equal(t, []byte("travelDuration"), msg.Headers[0].Value)
	assert.Equal(t, "computed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_UniqueKeys(t *testing.T) {
	event := domain.MatrixComputed{CoordinateCount: 2, Metric: domain.MetricTravelDistance}

	first, err := serializeToMessage(event)
	require.NoError(t, err)
	second, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
}
