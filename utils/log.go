package utils

import (
	"io"
	"strings"

	log15 "github.com/inconshreveable/log15/v3"
)

// NewLogger builds the process root logger. Unknown levels fall back to info.
func NewLogger(level, format string, w io.Writer) log15.Logger {
	lvl, err := log15.LvlFromString(strings.ToLower(level))
	if err != nil {
		lvl = log15.LvlInfo
	}

	var f log15.Format
	switch strings.ToLower(format) {
	case "json":
		f = log15.JsonFormat()
	default:
		f = log15.LogfmtFormat()
	}

	logger := log15.New()
	logger.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(w, f)))
	return logger
}

// DiscardLogger is used by tests and by components constructed without a logger.
func DiscardLogger() log15.Logger {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	return logger
}
