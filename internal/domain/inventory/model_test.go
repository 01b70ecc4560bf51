package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysInStock(t *testing.T) {
	st := Stock{StockInDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 0, st.DaysInStock(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 1, st.DaysInStock(time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 31, st.DaysInStock(time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)))
}

func TestIsReleased(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Stock{Status: StatusInStock, ReleasedAt: &now}).IsReleased())
	assert.False(t, (&Stock{Status: StatusInStock}).IsReleased())
	assert.False(t, (&Stock{Status: StatusReturned, ReleasedAt: &now}).IsReleased())
}

func TestNormalizeIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"blank entries", []string{"", "  ", "\n"}, []string{}},
		{"trim and dedupe keeps first order", []string{" b ", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"blob with crlf", []string{"1\r\n2\n\n3\n1"}, []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIdentifiers(tt.in))
		})
	}
	assert.Equal(t, []string{"x", "y"}, SplitLines("x\ny\n"))
}
