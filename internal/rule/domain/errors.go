package domain

import (
	"github.com/allisson/dbgrant/internal/errors"
)

// Rule administration errors.
var (
	// ErrRulerNotFound indicates the acting email has no ruler document and
	// therefore no rule-setting authority at all.
	ErrRulerNotFound = errors.Wrap(errors.ErrNotFound, "ruler not found")
)
