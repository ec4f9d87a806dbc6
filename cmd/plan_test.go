package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/reconcile"
)

func TestFormatPlanEmpty(t *testing.T) {
	var out bytes.Buffer
	formatPlan(&out, reconcile.Plan{UpToDate: 4, Ignored: 1})

	s := out.String()
	assert.Contains(t, s, "Nothing to process.")
	assert.Contains(t, s, "Up to date: 4")
	assert.Contains(t, s, "ignored: 1")
}

func TestFormatPlanWork(t *testing.T) {
	plan := reconcile.Plan{
		Process: []model.RawRef{
			{Name: "raw/s01/s01-20240301.csv", Subject: "s01", Date: "20240301"},
			{Name: "raw/s02/s02-20240302.csv", Subject: "s02", Date: "20240302"},
		},
		CopyThrough: []model.RawRef{
			{Name: "raw/s01/s01-20240301-location.csv", Subject: "s01", Date: "20240301", Suffix: "location"},
		},
		UpToDate: 2,
	}

	var out bytes.Buffer
	formatPlan(&out, plan)

	s := out.String()
	assert.Contains(t, s, "Process (2):")
	assert.Contains(t, s, "  raw/s01/s01-20240301.csv\n")
	assert.Contains(t, s, "  raw/s02/s02-20240302.csv\n")
	assert.Contains(t, s, "Copy through (1):")
	assert.Contains(t, s, "  raw/s01/s01-20240301-location.csv\n")
	assert.NotContains(t, s, "Nothing to process.")
}
