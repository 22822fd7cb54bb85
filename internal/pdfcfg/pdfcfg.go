// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfcfg builds the pdfcpu configuration shared by the image import
// and merge stages.
package pdfcfg

import (
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableOnce sync.Once

// New returns a pdfcpu configuration with relaxed validation. pdfcpu's
// on-disk configuration directory is disabled so runs never write outside
// the workspace.
func New() *model.Configuration {
	disableOnce.Do(func() {
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
