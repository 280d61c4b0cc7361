package utils_test

import (
	"encoding/json"
	"testing"

	"rental-directory/core/utils"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"Int", 15, 15, true},
		{"Float", float64(15), 15, true},
		{"FractionalFloat", 15.5, 0, false},
		{"JSONNumber", json.Number("7"), 7, true},
		{"String", " 12 ", 12, true},
		{"StringFloat", "3.0", 3, true},
		{"Garbage", "abc", 0, false},
		{"Nil", nil, 0, false},
		{"Bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := utils.ToInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", utils.ToString(nil))
	assert.Equal(t, "abc", utils.ToString("abc"))
	assert.Equal(t, "42", utils.ToString(json.Number("42")))
	assert.Equal(t, "1.5", utils.ToString(1.5))
}

func TestToBool(t *testing.T) {
	assert.True(t, utils.ToBool(true, false))
	assert.True(t, utils.ToBool("YES", false))
	assert.False(t, utils.ToBool("0", true))
	assert.True(t, utils.ToBool(float64(1), false))
	assert.True(t, utils.ToBool("maybe", true))
	assert.False(t, utils.ToBool(nil, false))
}
