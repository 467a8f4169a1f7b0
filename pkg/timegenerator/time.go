package timegenerator

import "time"

//go:generate mockgen -destination=mock/time.go -package=mock . TimeGenerator

// TimeGenerator provides an interface for reading the current time.
type TimeGenerator interface {
	Now() time.Time
}

type timegenerator struct {
}

// NewTimeGenerator instantiates a new time generator.
func NewTimeGenerator() TimeGenerator {
	return &timegenerator{}
}

// Now returns the wall clock time with millisecond precision.
func (gen *timegenerator) Now() time.Time {
	return time.Now().Truncate(time.Millisecond)
}
