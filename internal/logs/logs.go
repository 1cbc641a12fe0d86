// Package logs builds the process logger.
package logs

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// New returns a development logger when debug is set and a production
// logger otherwise. Both annotate the caller.
func New(debug bool) (*zap.Logger, error) {
	option := zap.AddCaller()
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment(option)
	} else {
		logger, err = zap.NewProduction(option)
	}
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}

// Component tags a logger the way every package expects.
func Component(log *zap.Logger, name string) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log.With(zap.String("component", name))
}
