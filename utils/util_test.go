package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/scenario-player/utils"
)

func TestFind(t *testing.T) {
	data := []string{"A", "B", "C"}
	m := map[string]string{"a": "A", "b": "B", "c": "C"}

	all, failed := utils.Find(m, data, nil)
	assert.Equal(t, data, all)
	assert.Empty(t, failed)

	got, failed := utils.Find(m, data, []string{"c", "x", "a"})
	assert.Equal(t, []string{"C", "A"}, got)
	assert.Equal(t, []string{"x"}, failed)
}
