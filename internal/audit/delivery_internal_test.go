package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelivery_RetryDelay(t *testing.T) {
	d := &delivery{config: DeliveryConfig{InitialBackoff: time.Second, MaxBackoff: 10 * time.Second}}

	assert.Equal(t, time.Second, d.RetryDelay(1))
	assert.Equal(t, 2*time.Second, d.RetryDelay(2))
	assert.Equal(t, 4*time.Second, d.RetryDelay(3))
	assert.Equal(t, 8*time.Second, d.RetryDelay(4))
	assert.Equal(t, 10*time.Second, d.RetryDelay(5))
	assert.Equal(t, 10*time.Second, d.RetryDelay(50))
}
