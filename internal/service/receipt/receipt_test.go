package receipt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	year := time.Now().UTC().Year()

	assert.Equal(t, fmt.Sprintf("RCT-%d-0001", year), formatNumber(1))
	assert.Equal(t, fmt.Sprintf("RCT-%d-0042", year), formatNumber(42))
	assert.Equal(t, fmt.Sprintf("RCT-%d-12345", year), formatNumber(12345), "sequences past 9999 keep their width")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "£65.00", money("", 65))
	assert.Equal(t, "£10.50", money("GBP", 10.5))
	assert.True(t, strings.HasPrefix(money("EUR", 1), "EUR"))
}
