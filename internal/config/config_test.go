package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBergenWarehouseMap(t *testing.T) {
	p := PipelineConfig{BergenWarehouses: []string{"Bergen Logistics NJ299=BLNJ", " Bergen CA = 3PLC LA ", "broken", "=BLNJ"}}

	assert.Equal(t, map[string]string{
		"Bergen Logistics NJ299": "BLNJ",
		"Bergen CA":              "3PLC LA",
	}, p.BergenWarehouseMap())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"BLNJ", "3PLC NJ"}, splitList(" BLNJ, ,3PLC NJ,"))
	assert.Nil(t, splitList(""))
}
