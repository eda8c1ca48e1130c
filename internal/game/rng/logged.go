package rng

import "go.uber.org/zap"

// loggedSource wraps a Source and records every draw at debug level.
type loggedSource struct {
	src    Source
	logger *zap.Logger
	name   string
}

// NewLoggedSource returns a Source that delegates to src and logs each draw.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger, name string) Source {
	return &loggedSource{src: src, logger: logger, name: name}
}

func (l *loggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("rng draw", zap.String("source", l.name), zap.Float64("value", v))
	return v
}
